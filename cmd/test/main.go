package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

type TestClient struct {
	baseURL string
	useReal bool
	client  *http.Client
}

func NewTestClient(baseURL string, useReal bool) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		useReal: useReal,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the agent")
	testType := flag.String("test", "all", "Test type: all, health, agent-card, page, api, a2a, custom")
	instructions := flag.String("instructions", "", "Free-text instructions for the custom test")
	inputFile := flag.String("file", "", "Product JSON file for the custom test (server default when empty)")
	useReal := flag.Bool("real", false, "Ask the server to use the real LLM backend")
	flag.Parse()

	client := NewTestClient(*baseURL, *useReal)

	printHeader("Ad Creative Agent - Test Suite")
	fmt.Printf("%sBase URL: %s%s\n\n", colorCyan, *baseURL, colorReset)

	switch *testType {
	case "all":
		client.runAllTests()
	case "health":
		client.testHealthCheck()
	case "agent-card":
		client.testAgentCard()
	case "page":
		client.testPage()
	case "api":
		client.testAPI()
	case "a2a":
		client.testA2A()
	case "custom":
		var input json.RawMessage
		if *inputFile != "" {
			data, err := os.ReadFile(*inputFile)
			if err != nil {
				printError(fmt.Sprintf("Failed to read %s: %v", *inputFile, err))
				os.Exit(1)
			}
			input = data
		}
		if !client.testCreatives(input, *instructions) {
			os.Exit(1)
		}
	default:
		printError(fmt.Sprintf("Unknown test type: %s", *testType))
		fmt.Println("\nAvailable tests: all, health, agent-card, page, api, a2a, custom")
		os.Exit(1)
	}
}

func (tc *TestClient) runAllTests() {
	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Health Check", tc.testHealthCheck},
		{"Agent Card", tc.testAgentCard},
		{"Page", tc.testPage},
		{"Creatives API", tc.testAPI},
		{"A2A Task", tc.testA2A},
	}

	passed := 0
	failed := 0

	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	printHeader("Test Summary")
	fmt.Printf("%sPassed: %d%s\n", colorGreen, passed, colorReset)
	fmt.Printf("%sFailed: %d%s\n", colorRed, failed, colorReset)
	fmt.Printf("Total: %d\n", passed+failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	url := fmt.Sprintf("%s/health", tc.baseURL)
	fmt.Printf("GET %s\n", url)

	resp, err := tc.client.Get(url)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		return false
	}

	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	url := fmt.Sprintf("%s/.well-known/agent.json", tc.baseURL)
	fmt.Printf("GET %s\n", url)

	resp, err := tc.client.Get(url)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var agentCard map[string]any
	if err := json.Unmarshal(body, &agentCard); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}

	requiredFields := []string{"name", "description", "version", "capabilities", "endpoints"}
	for _, field := range requiredFields {
		if _, ok := agentCard[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	printJSON(body)
	return true
}

func (tc *TestClient) testPage() bool {
	printTestHeader("Testing Page")

	url := fmt.Sprintf("%s/", tc.baseURL)
	fmt.Printf("GET %s\n", url)

	resp, err := tc.client.Get(url)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		return false
	}
	if !strings.Contains(string(body), `action="/generate"`) {
		printError("Page does not contain the generation form")
		return false
	}

	printSuccess("Page renders the generation form")
	return true
}

func (tc *TestClient) testAPI() bool {
	return tc.testCreatives(nil, "Focus on the camera, keep it playful")
}

// testCreatives calls the JSON API. A nil input lets the server use its
// built-in sample.
func (tc *TestClient) testCreatives(input json.RawMessage, instructions string) bool {
	printTestHeader("Testing Creatives API")

	url := fmt.Sprintf("%s/api/v1/creatives", tc.baseURL)
	fmt.Printf("POST %s\n", url)

	request := map[string]any{
		"instructions": instructions,
		"use_real":     tc.useReal,
	}
	if input != nil {
		request["input"] = input
	}

	jsonData, _ := json.MarshalIndent(request, "", "  ")
	fmt.Printf("%sRequest:%s\n", colorYellow, colorReset)
	fmt.Println(string(jsonData))
	fmt.Println()

	resp, err := tc.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var result struct {
		Variants []map[string]any `json:"variants"`
		Channel  string           `json:"channel"`
		ImageURL string           `json:"image_url"`
		Text     string           `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if len(result.Variants) == 0 {
		printError(fmt.Sprintf("No variants generated: %s", result.Text))
		return false
	}

	printSuccess(fmt.Sprintf("Generated %d variant(s) for %s", len(result.Variants), strings.ToUpper(result.Channel)))
	printJSON(body)
	return true
}

func (tc *TestClient) testA2A() bool {
	printTestHeader("Testing A2A Task")

	url := fmt.Sprintf("%s/a2a/creatives", tc.baseURL)
	fmt.Printf("POST %s\n", url)

	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      fmt.Sprintf("test-%d", time.Now().Unix()),
		"method":  "message/send",
		"params": map[string]any{
			"message": map[string]any{
				"kind": "message",
				"role": "user",
				"parts": []map[string]any{
					{
						"kind": "text",
						"text": "Highlight the discount",
					},
					{
						"kind": "data",
						"data": map[string]any{
							"name":        "Ultra X Smartphone",
							"category":    "smartphone",
							"price":       49990,
							"market_cost": 30000,
							"description": "AMOLED 120 Hz display",
							"tags":        []string{"new", "bright"},
						},
					},
				},
			},
			"configuration": map[string]any{
				"blocking":            true,
				"acceptedOutputModes": []string{"text", "data"},
			},
			"metadata": map[string]any{
				"use_real": tc.useReal,
			},
		},
	}

	jsonData, _ := json.MarshalIndent(request, "", "  ")
	fmt.Printf("%sRequest:%s\n", colorYellow, colorReset)
	fmt.Println(string(jsonData))
	fmt.Println()

	resp, err := tc.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var response map[string]any
	if err := json.Unmarshal(body, &response); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}

	if errObj, ok := response["error"]; ok {
		printError("Request returned an error")
		errJSON, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Println(string(errJSON))
		return false
	}

	result, ok := response["result"].(map[string]any)
	if !ok {
		printError("Invalid result format")
		return false
	}

	status, ok := result["status"].(map[string]any)
	if !ok {
		printError("Invalid status format")
		return false
	}

	state, _ := status["state"].(string)
	if state != "completed" {
		printError(fmt.Sprintf("Expected state 'completed', got '%s'", state))
		return false
	}

	printSuccess("A2A task completed successfully")

	if msg, ok := status["message"].(map[string]any); ok {
		if parts, ok := msg["parts"].([]any); ok {
			fmt.Printf("\n%sGenerated Creatives:%s\n", colorGreen, colorReset)
			fmt.Println(strings.Repeat("=", 80))
			for _, part := range parts {
				if p, ok := part.(map[string]any); ok {
					if text, ok := p["text"].(string); ok {
						fmt.Println(text)
					}
				}
			}
			fmt.Println(strings.Repeat("=", 80))
		}
	}

	if artifacts, ok := result["artifacts"].([]any); ok && len(artifacts) > 0 {
		fmt.Printf("\n%sArtifacts:%s\n", colorPurple, colorReset)
		artifactsJSON, _ := json.MarshalIndent(artifacts, "", "  ")
		fmt.Println(string(artifactsJSON))
	}

	return true
}

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
	fmt.Printf("%s= %s =%s\n", colorBlue, text, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
}

func printTestHeader(text string) {
	fmt.Printf("%s[TEST] %s%s\n", colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%sResponse:%s\n%s\n", colorYellow, colorReset, prettyJSON.String())
	}
}
