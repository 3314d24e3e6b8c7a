// Package api provides the chat completion client.
//
// # Architecture
//
//   - client.go: AIClient interface, request/response types and NewClient
//   - openai.go: OpenAIClient for any OpenAI-compatible endpoint
//   - stream.go: accumulation of streamed deltas, including reasoning text
//   - retry.go: exponential backoff and error classification
//
// # Usage
//
//	cfg, _ := config.Load()
//	cfg.Validate()
//	cfg.LoadAPIKey()
//	client, err := api.NewClient(cfg)
//	if err != nil {
//	    // handle error
//	}
//	defer client.Close()
//
//	resp, err := client.QueryStream(ctx, api.ChatRequest{
//	    Model:       cfg.Model,
//	    Temperature: cfg.Temperature,
//	    Messages:    transcript.Messages(),
//	}, func(d api.Delta) { fmt.Print(d.Content) })
//
// # Keys and retries
//
// The provider's api_key_env may hold several comma-separated keys. A 401,
// 403 or 429 that survives the retries moves the client to the next key.
// Transient failures (429, 500, 502, 503, 504) are retried with backoff
// before a stream starts; a stream that fails midway returns the partial
// reply with the error.
package api
