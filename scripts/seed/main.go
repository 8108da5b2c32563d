// Command seed populates a running API instance with demo accounts and
// questionnaire submissions for manual testing.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

type account struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type submission struct {
	Type    string        `json:"type"`
	Answers []interface{} `json:"answers"`
}

type authPayload struct {
	Data struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

var accounts = []account{
	{FullName: "Мария Соколова", Email: "psychologist@example.com", Password: "password123", Role: "PSYCHOLOGIST"},
	{FullName: "Иван Петров", Email: "ivan@example.com", Password: "password123", Role: "STUDENT"},
	{FullName: "Анна Смирнова", Email: "anna@example.com", Password: "password123", Role: "STUDENT"},
	{FullName: "Дмитрий Козлов", Email: "dmitry@example.com", Password: "password123", Role: "STUDENT"},
}

func main() {
	var (
		base       string
		perStudent int
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api", "API base URL")
	flag.IntVar(&perStudent, "per-student", 2, "Submissions per student")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	base = strings.TrimRight(base, "/")

	for _, acc := range accounts {
		token, err := registerOrLogin(client, base, acc)
		if err != nil {
			log.Fatalf("failed to sign in %s: %v", acc.Email, err)
		}
		if acc.Role != "STUDENT" {
			continue
		}
		for i := 0; i < perStudent; i++ {
			sub := randomSubmission()
			if err := submit(client, base, token, sub); err != nil {
				log.Fatalf("failed to submit %s for %s: %v", sub.Type, acc.Email, err)
			}
			fmt.Printf("submitted %s for %s\n", sub.Type, acc.Email)
		}
	}
}

func registerOrLogin(client *http.Client, base string, acc account) (string, error) {
	token, status, err := postAuth(client, base+"/auth/register", acc)
	if err != nil {
		return "", err
	}
	if status == http.StatusConflict {
		token, status, err = postAuth(client, base+"/auth/login", account{Email: acc.Email, Password: acc.Password})
		if err != nil {
			return "", err
		}
	}
	if status >= http.StatusBadRequest {
		return "", fmt.Errorf("unexpected status %d", status)
	}
	return token, nil
}

func postAuth(client *http.Client, url string, payload interface{}) (string, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	var auth authPayload
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", resp.StatusCode, err
	}
	return auth.Data.AccessToken, resp.StatusCode, nil
}

func submit(client *http.Client, base, token string, sub submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, base+"/tests/submit", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func randomSubmission() submission {
	if rand.Intn(2) == 0 {
		answers := make([]interface{}, 58)
		for i := range answers {
			if rand.Intn(2) == 0 {
				answers[i] = "да"
			} else {
				answers[i] = "нет"
			}
		}
		return submission{Type: "PHILLIPS", Answers: answers}
	}
	answers := make([]interface{}, 13)
	for i := range answers {
		answers[i] = rand.Intn(5)
	}
	return submission{Type: "OLWEUS", Answers: answers}
}
