// Command wsclient uploads a WAV file over the websocket protocol and saves
// the synthesized translation.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satriahrh/jurubahasa/domain"
	"github.com/satriahrh/jurubahasa/internal/api"
)

const chunkSize = 32 * 1024

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "server base URL")
	input := flag.String("input", "", "WAV file to translate")
	source := flag.String("source", "en", "source language code")
	target := flag.String("target", "es", "target language code")
	outDir := flag.String("out", ".", "directory for the synthesized audio")
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}
	audio, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	// Step 1: Create a session
	fmt.Println("Step 1: Creating session...")

	reqBody, _ := json.Marshal(api.CreateSessionRequest{Source: *source, Target: *target})
	resp, err := http.Post(*serverURL+"/api/v1/sessions", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("Session creation failed with status: %d", resp.StatusCode)
	}

	var session api.CreateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		log.Fatalf("Failed to decode session response: %v", err)
	}

	fmt.Printf("✓ Session %s (%s → %s)\n", session.Session.ID,
		session.Session.SourceLanguage.Name, session.Session.TargetLanguage.Name)

	// Step 2: Connect to WebSocket with token
	fmt.Println("Step 2: Connecting to WebSocket...")

	base, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}
	wsURL := url.URL{Scheme: "ws", Host: base.Host, Path: "/ws"}
	if base.Scheme == "https" {
		wsURL.Scheme = "wss"
	}
	q := wsURL.Query()
	q.Set("token", session.Token)
	wsURL.RawQuery = q.Encode()

	conn, wsResp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		if wsResp != nil {
			log.Fatalf("WebSocket connection failed with status %d: %v", wsResp.StatusCode, err)
		}
		log.Fatalf("WebSocket connection failed: %v", err)
	}
	defer conn.Close()

	fmt.Println("✓ WebSocket connection successful!")

	// Step 3: Stream the recording
	fmt.Println("Step 3: Sending audio...")

	if err := conn.WriteJSON(domain.ClientMessage{Type: domain.MessageCaptureStart}); err != nil {
		log.Fatalf("Failed to start capture: %v", err)
	}
	expect(conn, domain.MessageCaptureStarted)

	for start := 0; start < len(audio); start += chunkSize {
		end := min(start+chunkSize, len(audio))
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[start:end]); err != nil {
			log.Fatalf("Failed to send audio chunk: %v", err)
		}
	}
	if err := conn.WriteJSON(domain.ClientMessage{Type: domain.MessageCaptureEnd}); err != nil {
		log.Fatalf("Failed to end capture: %v", err)
	}

	// Step 4: Wait for the result and the synthesized audio
	fmt.Println("Step 4: Waiting for translation...")

	var result domain.ResultMessage
	readInto(conn, &result)
	if result.Type == domain.MessageError {
		log.Fatalf("Server rejected capture: %s", result.Message)
	}

	if result.Transcript != "" {
		fmt.Printf("(%s) %s\n", result.SourceLanguage, result.Transcript)
	}
	if result.Translation != "" {
		fmt.Printf("(%s) %s\n", result.TargetLanguage, result.Translation)
	}
	if result.Phase != "completed" {
		log.Fatalf("✗ %s", result.Message)
	}

	var speaking domain.SpeakingStartMessage
	readInto(conn, &speaking)

	var synthesized []byte
	for len(synthesized) < speaking.Size {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		messageType, chunk, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}
		if messageType == websocket.BinaryMessage {
			synthesized = append(synthesized, chunk...)
		}
	}
	expect(conn, domain.MessageSpeakingEnd)

	path := filepath.Join(*outDir, speaking.FileName)
	if err := os.WriteFile(path, synthesized, 0o644); err != nil {
		log.Fatalf("Failed to save audio: %v", err)
	}

	fmt.Printf("✓ Saved %d bytes to %s\n", len(synthesized), path)
}

func readInto(conn *websocket.Conn, v any) {
	conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
	if err := conn.ReadJSON(v); err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}
}

func expect(conn *websocket.Conn, messageType string) {
	var msg struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	readInto(conn, &msg)
	if msg.Type != messageType {
		log.Fatalf("Expected %s, got %s: %s", messageType, msg.Type, msg.Message)
	}
}
