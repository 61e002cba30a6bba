package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vyldo/vyldo_backend/models"
)

// ChainOracle confirms whether a transfer with the expected memo, amount and
// destination exists on chain. Implemented by HiveService; faked in tests.
type ChainOracle interface {
	VerifyTransfer(ctx context.Context, txID, expectedMemo string, expectedAmount float64, expectedDestination string) (*models.HiveTransaction, error)
}

// HiveService verifies escrow payments against a Hive API node over
// JSON-RPC (condenser_api.get_transaction).
type HiveService struct {
	apiURL        string
	escrowAccount string
	currency      string
	client        *http.Client
	debug         bool
}

// NewHiveService creates a Hive oracle client from environment configuration.
func NewHiveService() *HiveService {
	apiURL := os.Getenv("HIVE_API_URL")
	if apiURL == "" {
		apiURL = "https://api.hive.blog"
	}

	escrowAccount := os.Getenv("VYLDO_ESCROW_ACCOUNT")
	currency := os.Getenv("VYLDO_CURRENCY")
	if currency == "" {
		currency = "HBD"
	}

	if escrowAccount == "" {
		log.Printf("WARNING: VYLDO_ESCROW_ACCOUNT is not set; payment verification will fail")
	} else {
		log.Printf("Hive oracle configuration:")
		log.Printf("  API node: %s", apiURL)
		log.Printf("  Escrow account: %s", escrowAccount)
		log.Printf("  Currency: %s", currency)
	}

	return &HiveService{
		apiURL:        apiURL,
		escrowAccount: escrowAccount,
		currency:      currency,
		// The outer request budget for order submission is multi-minute;
		// the node call gets the bulk of it.
		client: &http.Client{Timeout: 3 * time.Minute},
		debug:  os.Getenv("HIVE_DEBUG") == "true",
	}
}

// EscrowAccount returns the configured shared escrow destination.
func (s *HiveService) EscrowAccount() string {
	return s.escrowAccount
}

// Currency returns the transfer symbol orders are priced in.
func (s *HiveService) Currency() string {
	return s.currency
}

// VerifyTransfer fetches the transaction and checks it carries a transfer to
// the expected destination with the expected memo and amount. A missing or
// mismatched transaction returns ErrPaymentVerificationFailed; node failures
// return ErrOracleUnavailable so the caller can retry.
func (s *HiveService) VerifyTransfer(ctx context.Context, txID, expectedMemo string, expectedAmount float64, expectedDestination string) (*models.HiveTransaction, error) {
	result, err := s.getTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, models.ErrPaymentVerificationFailed
	}

	expectedAmountStr := fmt.Sprintf("%.3f %s", expectedAmount, s.currency)

	for _, op := range result.Operations {
		if len(op) != 2 {
			continue
		}
		opType, ok := op[0].(string)
		if !ok || opType != "transfer" {
			continue
		}
		payload, ok := op[1].(map[string]interface{})
		if !ok {
			continue
		}

		to, _ := payload["to"].(string)
		memo, _ := payload["memo"].(string)
		amount, _ := payload["amount"].(string)

		if s.debug {
			log.Printf("Hive oracle: tx %s transfer to=%s amount=%s memo=%s", txID, to, amount, memo)
		}

		if to == expectedDestination && strings.TrimSpace(memo) == expectedMemo && amount == expectedAmountStr {
			timestamp, _ := time.Parse("2006-01-02T15:04:05", result.Expiration)
			return &models.HiveTransaction{
				TxID:      result.TransactionID,
				BlockNum:  result.BlockNum,
				Timestamp: timestamp,
			}, nil
		}
	}

	return nil, models.ErrPaymentVerificationFailed
}

// getTransaction calls condenser_api.get_transaction. A nil result with nil
// error means the node answered but knows no such transaction.
func (s *HiveService) getTransaction(ctx context.Context, txID string) (*models.HiveTransactionResult, error) {
	rpcReq := models.HiveRPCRequest{
		JSONRPC: "2.0",
		Method:  "condenser_api.get_transaction",
		Params:  []interface{}{txID},
		ID:      1,
	}

	jsonData, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Hive oracle request failed: %v", err)
		return nil, models.ErrOracleUnavailable
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.ErrOracleUnavailable
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("Hive oracle returned status %d: %s", resp.StatusCode, string(respBody))
		return nil, models.ErrOracleUnavailable
	}

	var rpcResp models.HiveRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		log.Printf("Hive oracle returned malformed response: %v", err)
		return nil, models.ErrOracleUnavailable
	}

	if rpcResp.Error != nil {
		// Unknown transaction is a definitive "no match", not an outage.
		if strings.Contains(strings.ToLower(rpcResp.Error.Message), "unknown transaction") {
			return nil, nil
		}
		log.Printf("Hive oracle rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
		return nil, models.ErrOracleUnavailable
	}

	return rpcResp.Result, nil
}
