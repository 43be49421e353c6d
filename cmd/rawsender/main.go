package main

import (
	"bufio"
	"errors"
	"flag"
	"io"
	"net"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var addr = flag.String("addr", "localhost:4221", "server address")

// rawsender reads a request from stdin, one line at a time, and sends it with
// CRLF line endings. An empty line ends the header section; a body, if any,
// is the remaining input sent as-is. The raw response is copied to stdout.
func main() {
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logrus.Fatal(err)
	}
	defer conn.Close()

	reader := bufio.NewReader(os.Stdin)

	for {
		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			logrus.Fatal(err)
		}
		line := strings.TrimRight(input, "\r\n")
		if _, werr := conn.Write([]byte(line + "\r\n")); werr != nil {
			logrus.Fatal(werr)
		}
		if line == "" || err != nil {
			break
		}
	}

	if _, err := io.Copy(conn, reader); err != nil {
		logrus.Fatal(err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.CloseWrite()
	}

	if _, err := io.Copy(os.Stdout, conn); err != nil {
		logrus.Fatal(err)
	}
}
