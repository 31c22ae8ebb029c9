// Package redistest provides an in-memory redis.Conn for tests. It supports
// only the commands the service uses.
package redistest

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
)

type Published struct {
	Channel string
	Message []byte
}

// Conn is a fake redis.Conn. Close is a no-op so a single Conn can back a
// whole redis.Pool.
type Conn struct {
	mu        sync.Mutex
	keys      map[string]time.Time
	published []Published
	// Fail makes every non-empty command return this error.
	Fail error
}

func NewConn() *Conn {
	return &Conn{keys: make(map[string]time.Time)}
}

// Pool returns a pool that always dials c.
func (c *Conn) Pool() *redis.Pool {
	return &redis.Pool{
		Dial: func() (redis.Conn, error) { return c, nil },
	}
}

func (c *Conn) Published() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Published(nil), c.published...)
}

func (c *Conn) Close() error { return nil }
func (c *Conn) Err() error   { return nil }

func (c *Conn) Send(string, ...interface{}) error { return nil }
func (c *Conn) Flush() error                      { return nil }
func (c *Conn) Receive() (interface{}, error)     { return nil, nil }

func (c *Conn) Do(cmd string, args ...interface{}) (interface{}, error) {
	// redis.Pool sends an empty command when a connection is returned
	if cmd == "" {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Fail != nil {
		return nil, c.Fail
	}

	switch strings.ToUpper(cmd) {
	case "PING":
		return "PONG", nil

	case "SET":
		// SET key value [PX ms] [NX]
		key := fmt.Sprint(args[0])
		var ttl time.Duration
		nx := false
		for i := 2; i < len(args); i++ {
			switch strings.ToUpper(fmt.Sprint(args[i])) {
			case "NX":
				nx = true
			case "PX":
				if i+1 >= len(args) {
					return nil, fmt.Errorf("SET: PX without milliseconds")
				}
				ms, ok := args[i+1].(int64)
				if !ok {
					return nil, fmt.Errorf("SET: expected int64 milliseconds, got %T", args[i+1])
				}
				ttl = time.Duration(ms) * time.Millisecond
				i++
			}
		}
		if exp, ok := c.keys[key]; nx && ok && exp.After(time.Now()) {
			return nil, nil
		}
		exp := time.Now().Add(100 * 365 * 24 * time.Hour)
		if ttl > 0 {
			exp = time.Now().Add(ttl)
		}
		c.keys[key] = exp
		return "OK", nil

	case "DEL":
		n := int64(0)
		for _, a := range args {
			key := fmt.Sprint(a)
			if _, ok := c.keys[key]; ok {
				delete(c.keys, key)
				n++
			}
		}
		return n, nil

	case "PUBLISH":
		var msg []byte
		switch v := args[1].(type) {
		case []byte:
			msg = v
		case string:
			msg = []byte(v)
		default:
			msg = []byte(fmt.Sprint(v))
		}
		c.published = append(c.published, Published{Channel: fmt.Sprint(args[0]), Message: msg})
		return int64(1), nil
	}

	return nil, fmt.Errorf("redistest: unsupported command %s", cmd)
}
