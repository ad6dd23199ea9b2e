// Package main provides a CLI client for the matching-core gateway.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "gateway URL")

	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	submitSymbol := submitCmd.String("symbol", "AAPL", "instrument symbol")
	submitSide := submitCmd.String("side", "Buy", "order side (Buy/Sell/SellShort/SellShortExempt)")
	submitType := submitCmd.String("type", "Limit", "order type (Limit/Market)")
	submitTIF := submitCmd.String("tif", "Day", "time in force (Day/IOC/FOK/GoodTillDate)")
	submitPrice := submitCmd.String("price", "150.00", "limit price (ignored for Market)")
	submitQty := submitCmd.Int64("qty", 100, "order quantity")
	submitClientID := submitCmd.String("client-order-id", "", "client order id (generated if empty)")

	cancelCmd := flag.NewFlagSet("cancel", flag.ExitOnError)
	cancelSymbol := cancelCmd.String("symbol", "", "instrument symbol")
	cancelClientID := cancelCmd.String("client-order-id", "", "client order id to cancel")

	bookCmd := flag.NewFlagSet("book", flag.ExitOnError)
	bookSymbol := bookCmd.String("symbol", "AAPL", "instrument symbol")
	bookLevels := bookCmd.Int("levels", 5, "number of price levels per side")

	healthCmd := flag.NewFlagSet("health", flag.ExitOnError)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	flag.Parse()

	switch os.Args[1] {
	case "submit":
		submitCmd.Parse(os.Args[2:])
		clientID := *submitClientID
		if clientID == "" {
			clientID = fmt.Sprintf("cli-%d", time.Now().UnixNano())
		}
		submitOrder(*serverURL, *submitSymbol, *submitSide, *submitType, *submitTIF, *submitPrice, *submitQty, clientID)

	case "cancel":
		cancelCmd.Parse(os.Args[2:])
		cancelOrder(*serverURL, *cancelSymbol, *cancelClientID)

	case "book":
		bookCmd.Parse(os.Args[2:])
		getBook(*serverURL, *bookSymbol, *bookLevels)

	case "health":
		healthCmd.Parse(os.Args[2:])
		getHealth(*serverURL)

	case "demo":
		runDemo(*serverURL)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`matching-core client

Usage:
  client <command> [options]

Commands:
  submit    Submit a new order
  cancel    Cancel a resting order by client order id
  book      View aggregated order book levels
  health    Check gateway health
  demo      Run a short scripted demonstration

Examples:
  client submit -symbol AAPL -side Buy -type Limit -tif Day -price 150.00 -qty 100
  client cancel -symbol AAPL -client-order-id cli-123
  client book -symbol AAPL -levels 10
  client health
  client demo`)
}

func submitOrder(serverURL, symbol, side, orderType, tif, price string, qty int64, clientOrderID string) {
	req := map[string]interface{}{
		"symbol":          symbol,
		"side":            side,
		"type":            orderType,
		"time_in_force":   tif,
		"quantity":        qty,
		"client_order_id": clientOrderID,
	}
	if orderType == "Limit" {
		req["price"] = price
	}

	resp, err := postJSON(serverURL+"/order", req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Order Response:")
	printJSON(resp)
}

func cancelOrder(serverURL, symbol, clientOrderID string) {
	url := fmt.Sprintf("%s/cancel?symbol=%s&client_order_id=%s", serverURL, symbol, clientOrderID)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println("Cancel Response:")
	printJSONBytes(body)
}

func getBook(serverURL, symbol string, levels int) {
	url := fmt.Sprintf("%s/book?symbol=%s&levels=%s", serverURL, symbol, strconv.Itoa(levels))

	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var data map[string]interface{}
	json.Unmarshal(body, &data)

	fmt.Printf("\n=== %s Order Book ===\n\n", symbol)

	if asks, ok := data["asks"].([]interface{}); ok {
		fmt.Println("ASKS:")
		for i := len(asks) - 1; i >= 0; i-- {
			if ask, ok := asks[i].(map[string]interface{}); ok {
				fmt.Printf("  %v: %v shares\n", ask["price"], ask["quantity"])
			}
		}
	}

	if bids, ok := data["bids"].([]interface{}); ok {
		fmt.Println("BIDS:")
		for _, bid := range bids {
			if b, ok := bid.(map[string]interface{}); ok {
				fmt.Printf("  %v: %v shares\n", b["price"], b["quantity"])
			}
		}
	}
}

func getHealth(serverURL string) {
	resp, err := http.Get(serverURL + "/health")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	printJSONBytes(body)
}

func runDemo(serverURL string) {
	fmt.Println("=== matching-core demo ===")

	fmt.Println("1. Initial order book (empty):")
	getBook(serverURL, "AAPL", 5)

	fmt.Println("\n2. Resting buy orders:")
	submitOrder(serverURL, "AAPL", "Buy", "Limit", "Day", "149.00", 100, "demo-buy-1")
	submitOrder(serverURL, "AAPL", "Buy", "Limit", "Day", "148.50", 200, "demo-buy-2")
	submitOrder(serverURL, "AAPL", "Buy", "Limit", "Day", "148.00", 300, "demo-buy-3")

	fmt.Println("\n3. Resting sell orders:")
	submitOrder(serverURL, "AAPL", "Sell", "Limit", "Day", "151.00", 100, "demo-sell-1")
	submitOrder(serverURL, "AAPL", "Sell", "Limit", "Day", "151.50", 200, "demo-sell-2")
	submitOrder(serverURL, "AAPL", "Sell", "Limit", "Day", "152.00", 300, "demo-sell-3")

	fmt.Println("\n4. Order book with liquidity:")
	getBook(serverURL, "AAPL", 5)

	fmt.Println("\n5. Market buy for 150 shares:")
	submitOrder(serverURL, "AAPL", "Buy", "Market", "Day", "", 150, "demo-market-buy")

	fmt.Println("\n6. Order book after the trade:")
	getBook(serverURL, "AAPL", 5)

	fmt.Println("\n=== Demo complete ===")
}

func postJSON(url string, data interface{}) (map[string]interface{}, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	err = json.Unmarshal(body, &result)
	return result, err
}

func printJSON(data interface{}) {
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	fmt.Println(string(jsonBytes))
}

func printJSONBytes(data []byte) {
	var obj interface{}
	json.Unmarshal(data, &obj)
	printJSON(obj)
}
