// models/hive.go
package models

// HiveRPCRequest is the JSON-RPC envelope sent to a Hive API node.
type HiveRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// HiveRPCError is the error member of a JSON-RPC response.
type HiveRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HiveTransactionResult is the subset of condenser_api.get_transaction we
// inspect: block number, timestamp (in the enclosing block) and operations.
type HiveTransactionResult struct {
	TransactionID string          `json:"transaction_id"`
	BlockNum      int64           `json:"block_num"`
	Expiration    string          `json:"expiration"`
	Operations    [][]interface{} `json:"operations"`
}

// HiveRPCResponse is the JSON-RPC envelope returned by the node.
type HiveRPCResponse struct {
	JSONRPC string                 `json:"jsonrpc"`
	Result  *HiveTransactionResult `json:"result"`
	Error   *HiveRPCError          `json:"error"`
	ID      int                    `json:"id"`
}
