package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("url", "http://localhost:3000/api/chat/v1/stream", "stream endpoint")
	message := flag.String("m", "推荐几本科幻小说", "message to send")
	session := flag.String("session", "", "existing session id")
	token := flag.String("token", "", "bearer token (minted from JWT_SECRET when empty)")
	userId := flag.String("user", "7d1f6f1e-3a52-4f0e-9a43-1c0b5d2f9e01", "user id for a minted token")
	flag.Parse()

	if *token == "" {
		minted, err := mintToken(*userId, os.Getenv("JWT_SECRET"))
		if err != nil {
			color.Red("Cannot mint token: %v", err)
			os.Exit(1)
		}
		*token = minted
	}

	target := *baseURL
	if *session != "" {
		target += "?sessionId=" + url.QueryEscape(*session)
	}

	body, _ := json.Marshal(map[string]string{"message": *message})
	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		color.Red("Bad request: %v", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+*token)

	color.Cyan("🚀 POST %s", target)
	started := time.Now()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	color.Green("Status: %s (request id %s)", resp.Status, resp.Header.Get("X-Request-ID"))

	counts := map[string]int{}
	name := ""
	var data []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case line == "":
			if name != "" {
				counts[name]++
				printEvent(name, strings.Join(data, "\n"), time.Since(started))
			}
			name, data = "", nil
		}
	}
	if err := scanner.Err(); err != nil {
		color.Red("Stream read failed: %v", err)
	}

	color.Cyan("\nEvents: %v in %s", counts, time.Since(started).Round(time.Millisecond))
}

func printEvent(name, data string, at time.Duration) {
	prefix := fmt.Sprintf("[%6dms] %-7s", at.Milliseconds(), name)
	switch name {
	case "chunk":
		if strings.Contains(data, `"book_info"`) {
			color.Magenta("%s %s", prefix, data)
			return
		}
		fmt.Printf("%s %s\n", prefix, data)
	case "message":
		color.Green("%s %s", prefix, data)
	case "error":
		color.Red("%s %s", prefix, data)
	case "done":
		color.Cyan("%s %s", prefix, data)
	default:
		color.Yellow("%s %s", prefix, data)
	}
}

func mintToken(userId, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId,
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
}
