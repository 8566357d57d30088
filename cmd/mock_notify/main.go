// Command mock_notify signs a gateway notification and posts it to the notify
// endpoint, optionally many times in parallel to exercise duplicate delivery.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/payhere"
	"github.com/SscSPs/donation_payments_app/internal/utils"
	"golang.org/x/sync/errgroup"
)

func main() {
	notifyURL := flag.String("url", "http://localhost:8080/payment/notify", "Notify URL")
	merchantID := flag.String("merchant", os.Getenv("PAYHERE_MERCHANT_ID"), "Merchant ID")
	secret := flag.String("secret", os.Getenv("PAYHERE_MERCHANT_SECRET"), "Merchant secret")
	orderID := flag.String("order", "", "Order ID (required)")
	amount := flag.String("amount", "1000.00", "payhere_amount, sent verbatim")
	currency := flag.String("currency", "LKR", "payhere_currency")
	status := flag.String("status", "2", "status_code (2, 0, -1, -2, -3)")
	paymentID := flag.String("payment-id", "", "payment_id (random when empty)")
	noSig := flag.Bool("no-sig", false, "Omit md5sig and send X-Notify-Token instead")
	token := flag.String("token", os.Getenv("PAYHERE_NOTIFY_TOKEN"), "Notify token used with -no-sig")
	workers := flag.Int("workers", 1, "Concurrent senders")
	repeat := flag.Int("repeat", 1, "Deliveries per worker")
	dryRun := flag.Bool("dry-run", false, "Only print the form, don't send")

	flag.Parse()

	if *orderID == "" {
		fmt.Fprintln(os.Stderr, "Error: -order is required")
		os.Exit(1)
	}
	if *paymentID == "" {
		suffix, err := utils.RandomHex(5)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating payment id: %v\n", err)
			os.Exit(1)
		}
		*paymentID = "32" + suffix
	}

	form := url.Values{
		"merchant_id":      {*merchantID},
		"order_id":         {*orderID},
		"payment_id":       {*paymentID},
		"payhere_amount":   {*amount},
		"payhere_currency": {*currency},
		"status_code":      {*status},
		"status_message":   {"mock notification"},
		"method":           {"TEST"},
	}
	if !*noSig {
		sig, err := payhere.Sign(*secret, *merchantID, *orderID, *amount, *currency, *status)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error signing notification: %v\n", err)
			os.Exit(1)
		}
		form.Set("md5sig", sig)
	}

	body := form.Encode()
	fmt.Printf("Body: %s\n", body)
	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	var sent, failed atomic.Int64

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < max(*workers, 1); w++ {
		g.Go(func() error {
			for i := 0; i < max(*repeat, 1); i++ {
				code, respBody, err := send(ctx, client, *notifyURL, body, *noSig, *token)
				sent.Add(1)
				if err != nil {
					failed.Add(1)
					return err
				}
				if code != http.StatusOK {
					failed.Add(1)
					fmt.Fprintf(os.Stderr, "Status: %d Response: %s\n", code, respBody)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	fmt.Printf("Sent %d notification(s) to %s, %d failed\n", sent.Load(), *notifyURL, failed.Load())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func send(ctx context.Context, client *http.Client, target, body string, withToken bool, token string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if withToken {
		req.Header.Set("X-Notify-Token", token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(respBody), nil
}
