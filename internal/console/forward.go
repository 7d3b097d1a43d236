// Package console forwards lines typed on the daemon's own stdin into the
// orchestrator, so an operator at the terminal can drive the server
// directly.
package console

import (
	"bufio"
	"io"
	"log"
)

type LineHandler func(line string)

// Forward reads r line by line and hands each line to the handler. It runs
// until r is closed and is meant to be launched as a goroutine with
// os.Stdin. The handler is called from that goroutine and must only
// enqueue an event.
func Forward(r io.Reader, handler LineHandler) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		handler(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Operator stdin read error: %v", err)
	}
}
