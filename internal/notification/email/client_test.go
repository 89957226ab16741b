package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dejobratic/checkout/internal/orders/domain"
	"github.com/dejobratic/checkout/internal/orders/ports"
)

func TestSendMail(t *testing.T) {
	t.Run("posts the mail payload to the mailer", func(t *testing.T) {
		var got map[string]string
		var gotPath, gotMethod, gotContentType string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath, gotMethod, gotContentType = r.URL.Path, r.Method, r.Header.Get("Content-Type")
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/", time.Second)
		err := client.SendMail(context.Background(), ports.Mail{
			Recipient: "a@x.com",
			Subject:   SubjectAddedToCart,
			HTML:      "<p>hi</p>",
		})
		if err != nil {
			t.Fatalf("SendMail() failed: %v", err)
		}

		if gotMethod != http.MethodPost || gotPath != "/store/send-email" {
			t.Errorf("unexpected request %s %s", gotMethod, gotPath)
		}
		if gotContentType != "application/json" {
			t.Errorf("unexpected content type %q", gotContentType)
		}
		if got["recepient"] != "a@x.com" || got["subject"] != "Added to Cart" || got["html"] != "<p>hi</p>" {
			t.Errorf("unexpected payload %v", got)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "mailbox full", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := NewClient(srv.URL, time.Second).SendMail(context.Background(), ports.Mail{Recipient: "a@x.com"})

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected *StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", statusErr.StatusCode)
		}
		if !strings.Contains(err.Error(), "mailbox full") {
			t.Errorf("expected body in error, got %q", err.Error())
		}
	})

	t.Run("unreachable mailer is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		if err := NewClient(url, time.Second).SendMail(context.Background(), ports.Mail{}); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestRenderAddedToCart(t *testing.T) {
	mail, err := RenderAddedToCart(domain.Order{
		Email:       "a@x.com",
		Name:        "Widget",
		Description: "<b>blue</b>",
		Amount:      12.5,
	})
	if err != nil {
		t.Fatalf("RenderAddedToCart() failed: %v", err)
	}

	if mail.Recipient != "a@x.com" || mail.Subject != "Added to Cart" {
		t.Errorf("unexpected mail header %+v", mail)
	}
	for _, want := range []string{"Hi a@x.com", "Name: Widget", "Amount: $12.50", "&lt;b&gt;blue&lt;/b&gt;"} {
		if !strings.Contains(mail.HTML, want) {
			t.Errorf("expected html to contain %q, got %s", want, mail.HTML)
		}
	}
}
