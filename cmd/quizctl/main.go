package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/stemsi/quizroom/internal/protocol"
)

func main() {
	var (
		addr    string
		session string
		login   string
		data    string
		timeout time.Duration
	)
	flag.StringVar(&addr, "addr", "127.0.0.1:5555", "Protocol server address")
	flag.StringVar(&session, "session", os.Getenv("QUIZ_SESSION"), "Session token")
	flag.StringVar(&login, "login", "", "Log in first as user:password and use the new session")
	flag.StringVar(&data, "data", "{}", "JSON data object of the request")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Round-trip timeout")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: quizctl [flags] <ACTION>")
		fmt.Fprintln(os.Stderr, "Example: quizctl -login student1:student123 LIST_ROOMS")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	action := protocol.Action(strings.ToUpper(flag.Arg(0)))

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		fail("connect: %v", err)
	}
	defer conn.Close()
	c := &client{conn: conn, r: bufio.NewReader(conn), timeout: timeout}

	if login != "" {
		user, pass, ok := strings.Cut(login, ":")
		if !ok {
			fail("-login must be user:password")
		}
		resp := c.roundTrip(protocol.ActionLogin, "", map[string]string{"username": user, "password": pass})
		if resp.Status != protocol.StatusSuccess {
			fail("login failed: %s %s", resp.ErrorCode, resp.ErrorMessage)
		}
		session = resp.SessionID
		fmt.Fprintf(os.Stderr, "Logged in as %s\n", user)
	}

	if !json.Valid([]byte(data)) {
		fail("-data is not valid JSON")
	}
	resp := c.roundTrip(action, session, json.RawMessage(data))

	var out bytes.Buffer
	if err := json.Indent(&out, resp.DataObject(), "", "  "); err != nil {
		out.Write(resp.DataObject())
	}
	fmt.Printf("%s %s\n", resp.Action, resp.Status)
	if resp.Status == protocol.StatusError {
		fmt.Printf("%s: %s\n", resp.ErrorCode, resp.ErrorMessage)
	}
	fmt.Println(out.String())
	if resp.Status != protocol.StatusSuccess {
		os.Exit(1)
	}
}

type client struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

func (c *client) roundTrip(action protocol.Action, session string, data any) protocol.Message {
	req, err := protocol.NewRequest(action, session, data)
	if err != nil {
		fail("build request: %v", err)
	}
	frame, err := protocol.Encode(req)
	if err != nil {
		fail("encode request: %v", err)
	}

	start := time.Now()
	c.conn.SetDeadline(start.Add(c.timeout))
	if err := protocol.WriteFrame(c.conn, frame); err != nil {
		fail("send: %v", err)
	}
	reply, err := protocol.ReadFrame(c.r)
	if err != nil {
		fail("receive: %v", err)
	}
	resp, err := protocol.Decode(reply)
	if err != nil {
		fail("decode response: %v", err)
	}

	fmt.Fprintf(os.Stderr, "%s: sent %s, received %s in %s\n",
		action,
		humanize.Bytes(uint64(len(frame))),
		humanize.Bytes(uint64(len(reply))),
		time.Since(start).Round(time.Microsecond),
	)
	return resp
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "quizctl: "+format+"\n", args...)
	os.Exit(1)
}
