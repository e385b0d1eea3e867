//go:build js && wasm

// Command edge is the WASM edge worker's entry point (spec.md §6): built
// with GOOS=js GOARCH=wasm, it registers a single global function the
// host JavaScript runtime calls from a fetch-style bridge, passing the
// OTLP path, content type/encoding headers, and the request body as a
// Uint8Array. Batching is disabled (config.DefaultEdgeConfig): every
// invocation decodes, converts, and flushes its own rows before the
// function returns, since a WASM worker instance may not survive between
// requests.
package main

import (
	"context"
	"syscall/js"

	"otlp2parquet/internal/app"
	"otlp2parquet/internal/config"
)

func main() {
	cfg := config.DefaultEdgeConfig()

	handler, err := app.NewRequestHandler(cfg)
	if err != nil {
		js.Global().Get("console").Call("error", "otlp2parquet: failed to initialize edge handler: "+err.Error())
		return
	}

	js.Global().Set("otlp2parquetIngest", js.FuncOf(ingestBridge(handler)))

	// Block forever: the registered function is what the host calls; this
	// goroutine must stay alive for the exported function to keep working.
	select {}
}

// ingestBridge adapts the host's fetch-style call — (path, contentType,
// contentEncoding, bodyBytes) — into one RequestHandler.IngestOne call,
// returning a JS object {status, body} rather than throwing, so the host
// bridge can translate it into an HTTP response without a try/catch.
func ingestBridge(handler *app.RequestHandler) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) != 4 {
			return jsResult(400, "expected (path, contentType, contentEncoding, body)")
		}

		path := args[0].String()
		contentType := args[1].String()
		contentEncoding := args[2].String()

		body := make([]byte, args[3].Get("length").Int())
		js.CopyBytesToGo(body, args[3])

		status, message := handler.IngestOne(context.Background(), path, body, contentType, contentEncoding)
		return jsResult(status, message)
	}
}

func jsResult(status int, message string) map[string]interface{} {
	return map[string]interface{}{
		"status": status,
		"body":   message,
	}
}
