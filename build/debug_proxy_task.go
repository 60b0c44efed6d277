package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/goyek/goyek/v2"
)

const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// DebugProxy starts an HTTP proxy that prints chat completion traffic
var DebugProxy = goyek.Define(goyek.Task{
	Name:  "debug-proxy",
	Usage: "Chat completions debug proxy. Use [-target=URL] [-port=8080]",
	Action: func(a *goyek.A) {
		target, err := url.Parse(*targetURL)
		if err != nil || target.Host == "" {
			a.Fatalf("Invalid target URL %q: %v", *targetURL, err)
		}

		proxy := &httputil.ReverseProxy{
			Rewrite: func(r *httputil.ProxyRequest) {
				r.SetURL(target)
				r.Out.Host = target.Host
			},
			ModifyResponse: func(resp *http.Response) error {
				fmt.Printf("\n%s=== RESPONSE ===%s\n", colorGreen, colorReset)
				fmt.Printf("Status: %s\n", resp.Status)

				if resp.Body == nil {
					return nil
				}
				body, err := io.ReadAll(resp.Body)
				if err != nil {
					return err
				}
				resp.Body.Close()

				if resp.Header.Get("Content-Encoding") == "gzip" {
					reader, err := gzip.NewReader(bytes.NewReader(body))
					if err == nil {
						body, _ = io.ReadAll(reader)
						reader.Close()
					}
				}

				printCompletionSummary(body)
				fmt.Printf("\n%sResponse Body:%s\n", colorYellow, colorReset)
				prettyPrint(body)

				resp.Body = io.NopCloser(bytes.NewReader(body))
				resp.ContentLength = int64(len(body))
				resp.Header.Del("Content-Encoding")
				return nil
			},
		}

		http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Printf("\n%s========================================%s\n", colorCyan, colorReset)
			fmt.Printf("%s[%s] %s %s%s\n", colorCyan, time.Now().Format("15:04:05"), r.Method, r.URL.Path, colorReset)
			fmt.Printf("%s========================================%s\n", colorCyan, colorReset)

			fmt.Printf("\n%sRequest Headers:%s\n", colorYellow, colorReset)
			for k, v := range r.Header {
				fmt.Printf("  %s: %s\n", k, maskHeader(k, strings.Join(v, ", ")))
			}

			if r.Body != nil {
				body, err := io.ReadAll(r.Body)
				if err == nil && len(body) > 0 {
					r.Body.Close()

					printRequestParams(body)
					fmt.Printf("\n%sRequest Body:%s\n", colorYellow, colorReset)
					prettyPrint(body)

					r.Body = io.NopCloser(bytes.NewReader(body))
					r.ContentLength = int64(len(body))
				}
			}

			proxy.ServeHTTP(w, r)
		})

		fmt.Printf("\nDebug proxy listening on http://localhost:%s\n", *port)
		fmt.Printf("   Proxying to: %s\n", target.String())
		fmt.Printf("   Set baseUrl in fieldgen.yaml or FIELDGEN_BASE_URL to: http://localhost:%s/v1\n\n", *port)

		if err := http.ListenAndServe(":"+*port, nil); err != nil {
			a.Fatalf("Server error: %v", err)
		}
	},
})

func maskHeader(name, val string) string {
	switch strings.ToLower(name) {
	case "authorization", "x-api-key", "api-key":
		if len(val) > 20 {
			return val[:10] + "..." + val[len(val)-5:]
		}
		return "********"
	}
	return val
}

// printRequestParams highlights the parameters a model may reject.
func printRequestParams(body []byte) {
	var req map[string]any
	if json.Unmarshal(body, &req) != nil {
		return
	}
	fmt.Printf("\n%sParameters:%s model=%v", colorYellow, colorReset, req["model"])
	for _, key := range []string{"max_tokens", "max_completion_tokens", "temperature", "reasoning_effort"} {
		if v, ok := req[key]; ok {
			fmt.Printf(" %s=%v", key, v)
		}
	}
	fmt.Println()
}

func printCompletionSummary(body []byte) {
	var resp struct {
		Choices []struct {
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
		Error *struct {
			Message string `json:"message"`
			Param   string `json:"param"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &resp) != nil {
		return
	}
	switch {
	case resp.Error != nil:
		fmt.Printf("Error: %s (param=%q)\n", resp.Error.Message, resp.Error.Param)
	case len(resp.Choices) > 0:
		fmt.Printf("Finish reason: %s\n", resp.Choices[0].FinishReason)
	}
	if resp.Usage != nil {
		fmt.Printf("Usage: prompt=%d completion=%d\n", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
}

func prettyPrint(data []byte) {
	var obj any
	if err := json.Unmarshal(data, &obj); err == nil {
		pretty, _ := json.MarshalIndent(obj, "  ", "  ")
		s := string(pretty)
		if len(s) > 2000 {
			s = s[:2000] + "\n  ... (truncated)"
		}
		fmt.Printf("  %s\n", s)
	} else {
		s := string(data)
		if len(s) > 2000 {
			s = s[:2000] + "\n... (truncated)"
		}
		fmt.Printf("  %s\n", s)
	}
}
