// Package notify announces published releases over NATS JetStream.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/releaser/internal/config"
	"git.home.luguber.info/inful/releaser/internal/logfields"
	"git.home.luguber.info/inful/releaser/internal/release"
)

// Client publishes announcements to a JetStream subject.
type Client struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewClient connects to NATS and makes sure the announcement stream exists.
func NewClient(ctx context.Context, cfg *config.NATSConfig) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("releaser"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{conn: conn, js: js, subject: cfg.Subject}
	if cfg.Stream != "" {
		if err := client.ensureStream(ctx, cfg.Stream); err != nil {
			conn.Close()
			return nil, err
		}
	}

	slog.Info("NATS client initialized for release announcements",
		"url", cfg.URL,
		"subject", cfg.Subject,
		"stream", cfg.Stream)
	return client, nil
}

func (c *Client) ensureStream(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        name,
		Description: "Release announcements",
		Subjects:    []string{c.subject},
		MaxMsgs:     10000,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", name, err)
	}
	return nil
}

// Subject is the default subject announcements go to.
func (c *Client) Subject() string { return c.subject }

// Publish sends data to subject and waits for the JetStream ack.
func (c *Client) Publish(ctx context.Context, subject string, data []byte) error {
	if subject == "" {
		subject = c.subject
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish announcement: %w", err)
	}
	slog.Debug("Published release announcement", "subject", subject)
	return nil
}

// Close closes the NATS connection.
func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// Announcement is the JSON message sent for a published release.
type Announcement struct {
	Package     string    `json:"package"`
	Version     string    `json:"version"`
	Tag         string    `json:"tag,omitempty"`
	BoundCommit string    `json:"bound_commit"`
	ReleaseType string    `json:"release_type"`
	Branch      string    `json:"branch,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewAnnouncement builds an announcement from a release context.
func NewAnnouncement(rc release.Context, now time.Time) Announcement {
	return Announcement{
		Package:     rc.PackageName,
		Version:     rc.NextVersion,
		Tag:         rc.TagName,
		BoundCommit: rc.Head,
		ReleaseType: rc.ReleaseType.String(),
		Branch:      rc.Branch,
		Notes:       rc.Notes,
		Timestamp:   now.UTC(),
	}
}

// Marshal encodes the announcement.
func (a Announcement) Marshal() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal announcement: %w", err)
	}
	return data, nil
}

// LogValue implements slog.LogValuer.
func (a Announcement) LogValue() slog.Value {
	return slog.GroupValue(
		logfields.Package(a.Package),
		logfields.Version(a.Version),
		logfields.Commit(a.BoundCommit),
	)
}
