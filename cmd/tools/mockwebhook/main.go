package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"akwaabamarket.com/app/internal/modules/payments"
)

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID        string `json:"id"`
		Amount    string `json:"amount"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
		PaidAt    string `json:"paid_at"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/webhooks/paystack", "Webhook URL")
	secret := flag.String("secret", os.Getenv("PAYSTACK_SECRET_KEY"), "Paystack secret key")
	event := flag.String("event", "charge.success", "Event type")
	reference := flag.String("reference", "", "Payment reference (joins to an order)")
	txnID := flag.String("txn-id", "tx_mock_1", "Provider transaction id")
	amount := flag.Int64("amount", 12500, "Amount in minor currency units")
	status := flag.String("status", "success", "Charge status")
	paidAt := flag.String("paid-at", time.Now().UTC().Format(time.RFC3339), "paid_at timestamp")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and PAYSTACK_SECRET_KEY not set\n")
		os.Exit(1)
	}
	if *reference == "" {
		fmt.Fprintf(os.Stderr, "Error: -reference is required\n")
		os.Exit(1)
	}

	payload := webhookPayload{Event: *event}
	payload.Data.ID = *txnID
	payload.Data.Amount = fmt.Sprintf("%d", *amount)
	payload.Data.Status = *status
	payload.Data.Reference = *reference
	payload.Data.PaidAt = *paidAt

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	sig := payments.Sign(*secret, body)

	fmt.Printf("X-Paystack-Signature: %s\n", sig)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Paystack-Signature", sig)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
