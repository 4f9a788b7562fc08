package observ

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

const serviceName = "quote-gateway"

var (
	logMu  sync.Mutex
	logOut io.Writer = os.Stdout
)

// SetOutput redirects log output and returns the previous writer. Tests use
// it to capture emitted events.
func SetOutput(w io.Writer) io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	prev := logOut
	logOut = w
	return prev
}

// Log emits one JSON line per event, stamped with the service name and a
// UTC timestamp. The kv map is not retained.
func Log(event string, kv map[string]any) {
	line := make(map[string]any, len(kv)+3)
	for k, v := range kv {
		line[k] = v
	}
	line["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	line["service"] = serviceName
	line["event"] = event
	b, err := json.Marshal(line)
	if err != nil {
		return
	}

	logMu.Lock()
	defer logMu.Unlock()
	logOut.Write(append(b, '\n'))
}
