package gfinance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func quotePage(price string) string {
	return fmt.Sprintf(`<html><body>
		<main><div class="YMlKec fxKbKc">%s</div></main>
	</body></html>`, price)
}

func TestQuoteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote/RELIANCE:NSE" {
			t.Errorf("path = %q, want /quote/RELIANCE:NSE", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		fmt.Fprint(w, quotePage("₹2,456.30"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	price, err := client.Quote(context.Background(), "RELIANCE", "NSE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.String() != "2456.3" {
		t.Errorf("price = %s, want 2456.3", price)
	}
}

func TestQuoteMissingPriceNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="other">nothing here</div></body></html>`)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Quote(context.Background(), "RELIANCE", "NSE")
	if !errors.Is(err, ErrNoPrice) {
		t.Errorf("err = %v, want ErrNoPrice", err)
	}
}

func TestQuoteNonPositivePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotePage("0.00"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Quote(context.Background(), "RELIANCE", "NSE")
	if !errors.Is(err, ErrNoPrice) {
		t.Errorf("err = %v, want ErrNoPrice", err)
	}
}

func TestQuoteUnparseablePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotePage("N/A"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Quote(context.Background(), "TCS", "NSE")
	if !errors.Is(err, ErrNoPrice) {
		t.Errorf("err = %v, want ErrNoPrice", err)
	}
}

func TestQuoteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Quote(context.Background(), "RELIANCE", "NSE")
	if err == nil {
		t.Fatal("expected error for 503, got nil")
	}
	if errors.Is(err, ErrNoPrice) {
		t.Error("HTTP failure should not be ErrNoPrice")
	}
}

func TestQuoteContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotePage("100"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Quote(ctx, "RELIANCE", "NSE")
	if err == nil {
		t.Fatal("expected error on cancelled context, got nil")
	}
}
