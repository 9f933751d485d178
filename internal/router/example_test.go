package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/patric-chuzhbe/usersapi/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usersapi/internal/models"
	"github.com/patric-chuzhbe/usersapi/internal/service"
	"github.com/patric-chuzhbe/usersapi/internal/user"
)

func setupExampleServer() (*httptest.Server, *memorystorage.MemoryStorage) {
	db, err := memorystorage.New()
	if err != nil {
		panic(err)
	}

	return httptest.NewServer(New(service.New(db))), db
}

func ExampleRouter_GetApiusers() {
	server, _ := setupExampleServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/users")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Body:", string(b))

	// Output:
	// Status Code: 200
	// Body: []
}

func ExampleRouter_PostApiusers() {
	server, _ := setupExampleServer()
	defer server.Close()

	payload := models.UserPayload{Username: "John Doe", Age: 30, Hobbies: []string{"reading"}}
	body, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	resp, err := http.Post(server.URL+"/api/users", "application/json", bytes.NewReader(body))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var created user.User
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Username:", created.Username)
	fmt.Println("Has ID:", created.ID != "")

	// Output:
	// Status Code: 201
	// Username: John Doe
	// Has ID: true
}

func ExampleRouter_DeleteApiusersID() {
	server, db := setupExampleServer()
	defer server.Close()

	usr, err := db.AddUser(context.Background(), "John Doe", 30, []string{"reading"})
	if err != nil {
		panic(err)
	}

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/users/"+usr.ID, nil)
	if err != nil {
		panic(err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Users left:", db.Count())

	// Output:
	// Status Code: 204
	// Users left: 0
}

func ExampleRouter_GetApiusersID() {
	server, _ := setupExampleServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/users/not-a-uuid")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Body:", string(b))

	// Output:
	// Status Code: 400
	// Body: Invalid UUID
}
