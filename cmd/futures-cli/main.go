package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"futurechain/crypto"
)

var rpcEndpoint = defaultRPCEndpoint()
var rpcAuthToken = os.Getenv("FUTURES_RPC_TOKEN")

func main() {
	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(args) < 1 {
		printUsage()
		return
	}

	switch command := args[0]; command {
	case "generate-key":
		generateKey()
	case "balance":
		requireArgs(args, 3, "balance <address> <token>")
		getBalance(args[1], args[2])
	case "get":
		requireArgs(args, 2, "get <futureId>")
		futureGet(parseID(args[1]))
	case "create":
		requireArgs(args, 11, "create <keyFile> <deliverable> <deliverableQuantity> <totalSupply> <payToken> <price> <securityDeposit> <startTime> <startDeliveryTime> <endTime>")
		createFuture(args[1], args[2:])
	case "deposit":
		requireArgs(args, 3, "deposit <futureId> <keyFile>")
		simpleCall("futures_deposit", map[string]interface{}{
			"futureId": parseID(args[1]),
			"caller":   addressFromKeyFile(args[2]),
		})
	case "mint":
		requireArgs(args, 4, "mint <futureId> <quantity> <keyFile>")
		simpleCall("futures_mint", map[string]interface{}{
			"futureId": parseID(args[1]),
			"quantity": args[2],
			"caller":   addressFromKeyFile(args[3]),
		})
	case "deliver":
		requireArgs(args, 4, "deliver <futureId> <quantity> <keyFile>")
		simpleCall("futures_deliver", map[string]interface{}{
			"futureId": parseID(args[1]),
			"quantity": args[2],
			"caller":   addressFromKeyFile(args[3]),
		})
	case "deliver-claim":
		requireArgs(args, 3, "deliver-claim <futureId> <keyFile>")
		simpleCall("futures_deliverClaim", map[string]interface{}{
			"futureId": parseID(args[1]),
			"caller":   addressFromKeyFile(args[2]),
		})
	case "claim":
		requireArgs(args, 4, "claim <futureId> <claimCount> <keyFile>")
		simpleCall("futures_claim", map[string]interface{}{
			"futureId": parseID(args[1]),
			"quantity": args[2],
			"caller":   addressFromKeyFile(args[3]),
		})
	case "refund":
		requireArgs(args, 3, "refund <futureId> <keyFile>")
		simpleCall("futures_refund", map[string]interface{}{
			"futureId": parseID(args[1]),
			"caller":   addressFromKeyFile(args[2]),
		})
	case "claim-balance":
		requireArgs(args, 3, "claim-balance <futureId> <address>")
		readCall("futures_claimBalance", map[string]interface{}{
			"futureId": parseID(args[1]),
			"holder":   args[2],
		})
	case "events":
		limit := 20
		if len(args) > 1 {
			limit = int(parseID(args[1]))
		}
		readCall("futures_events", map[string]interface{}{"limit": limit})
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8645"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func requireArgs(args []string, count int, usage string) {
	if len(args) < count {
		fmt.Printf("Usage: futures-cli %s\n", usage)
		os.Exit(1)
	}
}

func parseID(raw string) uint64 {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		fmt.Printf("Invalid future id %q\n", raw)
		os.Exit(1)
	}
	return id
}

func generateKey() {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}
	fileName := "wallet.key"
	if err := os.WriteFile(fileName, key.Bytes(), 0600); err != nil {
		panic(fmt.Sprintf("Failed to save key to %s: %v", fileName, err))
	}
	fmt.Printf("Generated new key and saved to %s\n", fileName)
	fmt.Printf("Your address is: %s\n", key.PubKey().Address().String())
	fmt.Println("Store this file securely.")
}

func loadPrivateKey(path string) (*crypto.PrivateKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("private key file %s not found. run ./futures-cli generate-key first", path)
		}
		return nil, fmt.Errorf("failed to read private key file %s: %w", path, err)
	}
	return crypto.PrivateKeyFromBytes(keyBytes)
}

func addressFromKeyFile(path string) string {
	key, err := loadPrivateKey(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return key.PubKey().Address().String()
}

func createFuture(keyFile string, terms []string) {
	startTime, err1 := strconv.ParseInt(terms[6], 10, 64)
	startDeliveryTime, err2 := strconv.ParseInt(terms[7], 10, 64)
	endTime, err3 := strconv.ParseInt(terms[8], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("Invalid timestamp; expected unix seconds.")
		os.Exit(1)
	}
	simpleCall("futures_create", map[string]interface{}{
		"owner":               addressFromKeyFile(keyFile),
		"deliverable":         terms[0],
		"deliverableQuantity": terms[1],
		"totalSupply":         terms[2],
		"payToken":            terms[3],
		"price":               terms[4],
		"securityDeposit":     terms[5],
		"startTime":           startTime,
		"startDeliveryTime":   startDeliveryTime,
		"endTime":             endTime,
	})
}

func getBalance(addr, token string) {
	readCall("fut_getBalance", map[string]interface{}{
		"address": addr,
		"token":   token,
	})
}

func futureGet(id uint64) {
	readCall("futures_get", map[string]interface{}{"futureId": id})
}

func simpleCall(method string, param interface{}) {
	result, err := callRPC(method, param, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printJSONResult(result)
}

func readCall(method string, param interface{}) {
	result, err := callRPC(method, param, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printJSONResult(result)
}

func callRPC(method string, param interface{}, requireAuth bool) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []interface{}{param},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	resp, err := doRPCRequest(payload, requireAuth)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response from node")
	}
	if rpcResp.Error != nil {
		if rpcResp.Error.Data != nil {
			return nil, fmt.Errorf("error from node: %s (%v)", rpcResp.Error.Message, rpcResp.Error.Data)
		}
		return nil, fmt.Errorf("error from node: %s", rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

func doRPCRequest(payload []byte, requireAuth bool) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requireAuth {
		if rpcAuthToken == "" {
			return nil, fmt.Errorf("privileged RPC call requires FUTURES_RPC_TOKEN to be set")
		}
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(rpcAuthToken))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", rpcEndpoint, err)
	}
	return resp, nil
}

func printJSONResult(result json.RawMessage) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		fmt.Println(string(result))
		return
	}
	fmt.Println(pretty.String())
}

func printUsage() {
	fmt.Println("Usage: futures-cli [--rpc <url>] <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  generate-key")
	fmt.Println("      Generate a new wallet key and print its address")
	fmt.Println("  balance <address> <token>")
	fmt.Println("      Show an account balance")
	fmt.Println("  get <futureId>")
	fmt.Println("      Show a future and its settlement state")
	fmt.Println("  create <keyFile> <deliverable> <deliverableQuantity> <totalSupply> <payToken> <price> <securityDeposit> <startTime> <startDeliveryTime> <endTime>")
	fmt.Println("      Register a new future owned by the key")
	fmt.Println("  deposit <futureId> <keyFile>")
	fmt.Println("      Post the security deposit")
	fmt.Println("  mint <futureId> <quantity> <keyFile>")
	fmt.Println("      Buy claim units")
	fmt.Println("  deliver <futureId> <quantity> <keyFile>")
	fmt.Println("      Deliver the underlying asset")
	fmt.Println("  deliver-claim <futureId> <keyFile>")
	fmt.Println("      Withdraw delivery proceeds (owner only)")
	fmt.Println("  claim <futureId> <claimCount> <keyFile>")
	fmt.Println("      Redeem claim units after maturity")
	fmt.Println("  refund <futureId> <keyFile>")
	fmt.Println("      Reclaim the unused deposit after maturity (owner only)")
	fmt.Println("  claim-balance <futureId> <address>")
	fmt.Println("      Show a holder's claim-unit balance")
	fmt.Println("  events [limit]")
	fmt.Println("      Show recent settlement events")
}
