// Command notifywatch logs in to a running server and prints the signed-in
// user's match notifications as they arrive.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mentorbridge/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	var baseURL, email, password string
	flags := pflag.NewFlagSet("notifywatch", pflag.ContinueOnError)
	flags.StringVar(&baseURL, "url", "http://localhost:3000", "server base URL")
	flags.StringVarP(&email, "email", "e", "", "account email")
	flags.StringVarP(&password, "password", "p", "", "account password (default $MENTORBRIDGE_PASSWORD)")
	if err := flags.Parse(argv); err != nil {
		return err
	}
	if password == "" {
		password = os.Getenv("MENTORBRIDGE_PASSWORD")
	}
	if email == "" || password == "" {
		return errors.New("--email and a password are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 10 * time.Second}
	base := strings.TrimRight(baseURL, "/")

	var login struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	if err := postJSON(ctx, client, base+"/users/login", "", map[string]string{"email": email, "password": password}, &login); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var ticket struct {
		Ticket string `json:"ticket"`
	}
	if err := postJSON(ctx, client, base+"/users/notifications/ticket", login.Token, nil, &ticket); err != nil {
		return fmt.Errorf("ticket: %w", err)
	}

	wsURL, err := feedURL(base, ticket.Ticket)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	slog.Info("watching notifications", "user", login.Name)
	for {
		var ev notifications.MatchEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read feed: %w", err)
		}
		slog.Info(ev.Type,
			"match", ev.MatchID,
			"status", ev.Status,
			"from", ev.ActorName,
			"skills", strings.Join(ev.MatchedSkills, ", "),
		)
	}
}

// feedURL turns the HTTP base into the ws(s) feed address.
func feedURL(base, ticket string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid --url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/notifications"
	u.RawQuery = url.Values{"ticket": {ticket}}.Encode()
	return u.String(), nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint, bearer string, body, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s: %s", resp.Status, e.Message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
