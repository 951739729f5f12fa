package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	. "krypt.co/locus/common/protocol"
)

const CENTER_PATH = "/center"

// HTTPTransport posts JSON requests to a peer's control server. Addresses
// starting with "/" or "unix:" are UNIX sockets, anything else is a TCP
// host:port.
type HTTPTransport struct {
	sync.Mutex
	timeout     time.Duration
	tcpClient   *http.Client
	unixClients map[string]*http.Client
}

func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		timeout:     timeout,
		tcpClient:   &http.Client{Timeout: timeout},
		unixClients: map[string]*http.Client{},
	}
}

func UnixSocketPath(address string) (path string, ok bool) {
	if strings.HasPrefix(address, "unix:") {
		return strings.TrimPrefix(address, "unix:"), true
	}
	if strings.HasPrefix(address, "/") {
		return address, true
	}
	return
}

func (t *HTTPTransport) clientFor(address string) (client *http.Client, url string) {
	socketPath, isUnix := UnixSocketPath(address)
	if !isUnix {
		return t.tcpClient, "http://" + address + CENTER_PATH
	}
	t.Lock()
	defer t.Unlock()
	client, ok := t.unixClients[socketPath]
	if !ok {
		dialer := &net.Dialer{Timeout: t.timeout}
		client = &http.Client{
			Timeout: t.timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return dialer.DialContext(ctx, "unix", socketPath)
				},
			},
		}
		t.unixClients[socketPath] = client
	}
	return client, "http://unix" + CENTER_PATH
}

func (t *HTTPTransport) Call(peer Peer, request Request) (response Response, err error) {
	if peer.Address == "" {
		err = NewTransportError(peer, fmt.Errorf("peer has no address"))
		return
	}
	requestJson, err := json.Marshal(request)
	if err != nil {
		err = WrapProtoError(err)
		return
	}
	client, url := t.clientFor(peer.Address)
	httpResponse, err := client.Post(url, "application/json", bytes.NewReader(requestJson))
	if err != nil {
		err = NewTransportError(peer, err)
		return
	}
	defer httpResponse.Body.Close()
	responseBytes, err := ioutil.ReadAll(httpResponse.Body)
	if err != nil {
		err = NewTransportError(peer, err)
		return
	}
	switch httpResponse.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		err = NewProtoError("%s rejected request: %s", peer.String(), strings.TrimSpace(string(responseBytes)))
		return
	default:
		err = NewTransportError(peer, fmt.Errorf("status %d: %s", httpResponse.StatusCode, strings.TrimSpace(string(responseBytes))))
		return
	}
	err = json.Unmarshal(responseBytes, &response)
	if err != nil {
		err = NewTransportError(peer, err)
		return
	}
	return
}
