package main

import (
	"flag"
	"fmt"
	"maps"
	"net"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/sevaergdm/tcpfileserver/internal/request"
)

var addr = flag.String("addr", ":4221", "listen address")

func main() {
	flag.Parse()

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		logrus.Fatal(err)
	}
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			logrus.Fatal(err)
		}

		go func(c net.Conn) {
			defer c.Close()
			fmt.Println("Connection Accepted!")

			req, err := request.RequestFromReader(c)
			if err != nil {
				logrus.WithError(err).Error("failed to parse request")
				return
			}

			fmt.Println("Request line:")
			fmt.Printf("- Method: %s\n", req.RequestLine.Method)
			fmt.Printf("- Target: %s\n", req.RequestLine.RequestTarget)
			fmt.Printf("- Version: %s\n", req.RequestLine.HttpVersion)
			fmt.Println("Headers:")
			for _, k := range slices.Sorted(maps.Keys(req.Headers)) {
				fmt.Printf("- %s: %s\n", k, req.Headers[k])
			}
			fmt.Printf("Accepts gzip: %t\n", req.AcceptsGzip())
			fmt.Println("Body:")
			fmt.Println(string(req.Body))

			fmt.Println("Connection has been closed")
		}(conn)
	}
}
