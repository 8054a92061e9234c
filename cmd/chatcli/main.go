// chatcli is a terminal client for listing conversations. It logs in,
// opens one conversation and mirrors it live; lines typed on stdin are
// sent as messages.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"campusrent/server/internal/chatclient"
)

func main() {
	var (
		baseURL  = flag.String("base", "http://localhost:8080", "API base URL")
		email    = flag.String("email", "", "account email")
		password = flag.String("password", "", "account password")
		listing  = flag.Int64("listing", 0, "listing id of the conversation")
	)
	flag.Parse()

	if *email == "" || *password == "" || *listing <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	token, userID, err := login(*baseURL, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	client := chatclient.NewClient(*baseURL, token, userID)
	store := chatclient.NewStore(userID, client,
		&chatclient.HistoryLoader{Primary: client},
		client.DialLive)

	ctx := context.Background()
	store.Open(ctx, *listing)
	defer store.Close()

	go render(store, userID)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			return
		}
		if _, err := store.SendLocal(ctx, text, ""); err != nil {
			log.Printf("Send failed: %v", err)
		}
	}
}

// render reprints the conversation whenever the store changes
func render(store *chatclient.Store, userID string) {
	for range store.Updates() {
		entries := store.Snapshot()
		fmt.Print("\033[2J\033[H") // clear screen
		for _, e := range entries {
			who := e.SenderID
			if e.SenderID == userID {
				who = "me"
			}
			state := ""
			if e.Pending {
				state = " (sending...)"
			}
			if e.Failed {
				state = " (failed)"
			}
			fmt.Printf("[%s] %s: %s%s\n", e.CreatedAt.Format("15:04:05"), who, e.Content, state)
		}
	}
}

// login exchanges credentials for a bearer token
func login(baseURL, email, password string) (token, userID string, err error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Post(strings.TrimRight(baseURL, "/")+"/api/v1/auth/login",
		"application/json", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", "", err
	}
	if !env.Success {
		return "", "", fmt.Errorf("%s", env.Error)
	}
	return env.Data.Token, env.Data.User.ID, nil
}
