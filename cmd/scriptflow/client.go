package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Tsinling0525/scriptflow/infra"
)

// Instance commands talk to a running server.

func apiBase() string {
	return "http://127.0.0.1:" + strconv.Itoa(infra.LoadConfig().APIPort)
}

func httpJSON(method, path string, payload any) (map[string]any, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, apiBase()+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
		Error   string         `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.Success {
		if out.Error != "" {
			return nil, errors.New(out.Error)
		}
		return nil, fmt.Errorf("request failed: %s", resp.Status)
	}
	return out.Data, nil
}

func instCreate(graph string) error {
	data, err := httpJSON(http.MethodPost, "/instances", map[string]string{"graph": graph})
	if err != nil {
		return err
	}
	fmt.Printf("created instance: %s (%s)\n", data["id"], data["name"])
	return nil
}

func instPS() error {
	data, err := httpJSON(http.MethodGet, "/instances", nil)
	if err != nil {
		return err
	}
	insts, _ := data["instances"].([]any)
	for _, it := range insts {
		m, _ := it.(map[string]any)
		fmt.Printf("%s\t%s\t%s\n", m["id"], m["name"], m["createdAt"])
	}
	return nil
}

func instStop(id string) error {
	_, err := httpJSON(http.MethodDelete, "/instances/"+id, nil)
	return err
}

func instLogs(id string) error {
	data, err := httpJSON(http.MethodGet, "/instances/"+id+"/logs", nil)
	if err != nil {
		return err
	}
	logs, _ := data["logs"].([]any)
	for _, l := range logs {
		fmt.Println(l)
	}
	return nil
}

func instSend(id, message, params string) error {
	var p any
	if params != "" {
		if err := json.Unmarshal([]byte(params), &p); err != nil {
			return fmt.Errorf("params: %w", err)
		}
	}
	n := 0
	if seq, ok := p.([]any); ok {
		n = len(seq)
	}
	body := map[string]any{
		"type":   map[string]any{"message": message, "nParams": n},
		"params": p,
	}
	_, err := httpJSON(http.MethodPost, "/instances/"+id+"/messages", body)
	return err
}
