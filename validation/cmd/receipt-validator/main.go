package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cloudx-io/blindauction/engineapi"
	"github.com/cloudx-io/blindauction/validation"
)

func main() {
	// Define CLI flags
	var (
		receiptInput     = flag.String("receipt", "", "Settlement receipt (file path or inline base64 COSE)")
		keyInput         = flag.String("key", "", "Engine verification key (file path or inline PEM)")
		auctionID        = flag.String("auction-id", "", "Expected auction ID (optional)")
		winner           = flag.String("winner", "", "Expected winner (optional, use with --amount)")
		amount           = flag.String("amount", "", "Expected winning amount as decimal string (optional)")
		winnerCommitment = flag.String("winner-commitment", "", "Winner's published commitment hash (optional)")
		winnerValue      = flag.String("winner-value", "", "Winner's revealed value (required with --winner-commitment)")
		winnerFake       = flag.Bool("winner-fake", false, "Winner's revealed fake flag")
		winnerSecret     = flag.String("winner-secret", "", "Winner's revealed secret (required with --winner-commitment)")
		outputFormat     = flag.String("format", "text", "Output format: text or json")
		help             = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	// Show help
	if *help {
		showUsage()
		os.Exit(0)
	}

	// Check for required inputs
	if *receiptInput == "" || *keyInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: Both --receipt and --key are required\n")
		os.Exit(1)
	}

	receipt, err := readInput(*receiptInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading receipt: %v\n", err)
		os.Exit(2)
	}

	keyPEM, err := readInput(*keyInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading key: %v\n", err)
		os.Exit(2)
	}

	input := &validation.ReceiptValidationInput{
		ReceiptCOSEBase64: engineapi.ReceiptCOSEBase64(strings.TrimSpace(receipt)),
		PublicKeyPEM:      keyPEM,
		ExpectedAuctionID: *auctionID,
		ExpectedWinner:    *winner,
		ExpectedAmount:    *amount,
		WinnerCommitment:  *winnerCommitment,
		WinnerValue:       *winnerValue,
		WinnerFake:        *winnerFake,
		WinnerSecret:      []byte(*winnerSecret),
	}

	result, parsed, err := validation.ValidateSettlementReceipt(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	if *outputFormat == "json" {
		outputJSON(result, parsed)
	} else {
		outputText(result, parsed)
	}

	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Settlement Receipt Validator")
	fmt.Println()
	fmt.Println("Verifies COSE_Sign1 settlement receipts issued by the auction engine.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  receipt-validator --receipt <base64> --key <pem> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --receipt <base64>                Receipt from the finalize response")
	fmt.Println("  --key <pem>                       Engine verification key (key_request response)")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --auction-id <id>                 Check the receipt names this auction")
	fmt.Println("  --winner <participant>            Expected winner (with --amount)")
	fmt.Println("  --amount <decimal>                Expected winning amount, e.g. 3.1")
	fmt.Println("  --winner-commitment <hex>         Recheck the winner's published commitment")
	fmt.Println("  --winner-value <decimal>          Winner's revealed value")
	fmt.Println("  --winner-fake                     Winner's revealed fake flag")
	fmt.Println("  --winner-secret <string>          Winner's revealed secret")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Input Format:")
	fmt.Println("  --receipt and --key accept either a file path or an inline value.")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readInput(input string) (string, error) {
	// Try reading as file first
	if data, err := os.ReadFile(input); err == nil {
		return string(data), nil
	}
	// Treat as inline value
	return input, nil
}

func outputText(result *validation.ReceiptValidationResult, receipt *engineapi.SettlementReceipt) {
	status := func(ok bool) string {
		if ok {
			return "PASS"
		}
		return "FAIL"
	}

	fmt.Printf("Signature:  %s\n", status(result.SignatureValid))
	fmt.Printf("Payload:    %s\n", status(result.PayloadValid))
	fmt.Printf("Outcome:    %s\n", status(result.OutcomeValid))
	fmt.Printf("Commitment: %s\n", status(result.CommitmentValid))

	if receipt != nil {
		fmt.Println()
		fmt.Printf("Auction:  %s\n", receipt.AuctionID)
		fmt.Printf("Winner:   %s\n", receipt.Winner)
		fmt.Printf("Amount:   %s\n", receipt.Amount)
		fmt.Printf("Receipt:  %s\n", receipt.ReceiptID)
	}

	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	if result.IsValid() {
		fmt.Println("Receipt is VALID")
	} else {
		fmt.Println("Receipt is INVALID")
	}
}

func outputJSON(result *validation.ReceiptValidationResult, receipt *engineapi.SettlementReceipt) {
	out := map[string]any{
		"valid":            result.IsValid(),
		"signature_valid":  result.SignatureValid,
		"payload_valid":    result.PayloadValid,
		"outcome_valid":    result.OutcomeValid,
		"commitment_valid": result.CommitmentValid,
		"details":          result.ValidationDetails,
	}
	if receipt != nil {
		out["receipt"] = map[string]any{
			"receipt_id":        receipt.ReceiptID,
			"auction_id":        receipt.AuctionID,
			"beneficiary":       receipt.Beneficiary,
			"winner":            receipt.Winner,
			"amount":            receipt.Amount,
			"commitment_digest": receipt.CommitmentDigest,
			"timestamp_unix":    receipt.TimestampUnix,
		}
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}
