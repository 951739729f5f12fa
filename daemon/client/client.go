package client

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"strings"

	"github.com/blang/semver"

	"krypt.co/locus/common/version"

	. "krypt.co/locus/common/protocol"
	. "krypt.co/locus/common/socket"
	. "krypt.co/locus/common/util"
)

var ErrOldLocusdRunning = errors.New(Red("An old version of locusd is still running. Please run " + Cyan("locus restart") + Red(" and try again.")))

func IsLatestLocusdRunning() (isRunning bool, err error) {
	running, err := RequestLocusdVersion()
	if err != nil {
		return
	}
	isRunning = running.Compare(version.CURRENT_VERSION) == 0
	return
}

func RequestLocusdVersionOver(conn net.Conn) (v semver.Version, err error) {
	httpRequest, err := http.NewRequest("GET", "/version", nil)
	if err != nil {
		return
	}
	err = httpRequest.Write(conn)
	if err != nil {
		err = ErrConnectingToDaemon
		return
	}

	responseReader := bufio.NewReader(conn)
	httpResponse, err := http.ReadResponse(responseReader, httpRequest)
	if err != nil {
		err = ErrConnectingToDaemon
		return
	}
	defer httpResponse.Body.Close()
	if httpResponse.StatusCode != http.StatusOK {
		err = ErrConnectingToDaemon
		return
	}

	versionBytes, err := ioutil.ReadAll(httpResponse.Body)
	if err != nil {
		return
	}

	v, err = semver.Make(string(versionBytes))
	return
}

func RequestLocusdVersion() (v semver.Version, err error) {
	daemonConn, err := DialDaemon()
	if err != nil {
		return
	}
	defer daemonConn.Close()
	v, err = RequestLocusdVersionOver(daemonConn)
	return
}

// DialDaemon connects to the admin socket, starting locusd if needed.
func DialDaemon() (conn net.Conn, err error) {
	unixFile, err := LocusDirFile(DAEMON_SOCKET_FILENAME)
	if err != nil {
		err = ErrConnectingToDaemon
		return
	}
	err = EnsureDaemon(unixFile)
	if err != nil {
		err = ErrConnectingToDaemon
		return
	}
	conn, err = net.Dial("unix", unixFile)
	if err != nil {
		err = ErrConnectingToDaemon
	}
	return
}

// makeJSONRequestOver sends body as JSON and decodes a 200 reply into out.
// Any other status becomes an error carrying the daemon's message.
func makeJSONRequestOver(conn net.Conn, method string, path string, body interface{}, out interface{}) (err error) {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return
		}
	}
	httpRequest, err := http.NewRequest(method, path, bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}
	err = httpRequest.Write(conn)
	if err != nil {
		err = fmt.Errorf("Daemon Write error: %s", err.Error())
		return
	}

	responseReader := bufio.NewReader(conn)
	httpResponse, err := http.ReadResponse(responseReader, httpRequest)
	if err != nil {
		err = fmt.Errorf("Daemon Read error: %s", err.Error())
		return
	}
	defer httpResponse.Body.Close()
	if httpResponse.StatusCode != http.StatusOK {
		message, _ := ioutil.ReadAll(httpResponse.Body)
		err = fmt.Errorf("Error %d: %s", httpResponse.StatusCode, strings.TrimSpace(string(message)))
		return
	}
	if out == nil {
		return
	}
	err = json.NewDecoder(httpResponse.Body).Decode(out)
	if err != nil {
		err = fmt.Errorf("Daemon decode error: %s", err.Error())
	}
	return
}

func CreateObjectOver(conn net.Conn, create CreateObjectRequest) (created CreateObjectResponse, err error) {
	err = makeJSONRequestOver(conn, http.MethodPut, "/objects", create, &created)
	return
}

func ListObjectsOver(conn net.Conn) (infos []ObjectInfo, err error) {
	err = makeJSONRequestOver(conn, http.MethodGet, "/objects", nil, &infos)
	return
}

// InvokeOver runs an operation through the daemon's center, wherever the
// object lives. Faults come back as the same typed errors a center
// returns.
func InvokeOver(conn net.Conn, invoke InvokeRequest) (result interface{}, err error) {
	var response Response
	err = makeJSONRequestOver(conn, http.MethodPost, "/invoke", invoke, &response)
	if err != nil {
		return
	}
	if response.Error != nil {
		err = response.Error.Err()
		return
	}
	if response.ExecuteResponse != nil {
		result = response.ExecuteResponse.Result
	}
	return
}

func MigrateOver(conn net.Conn, migrate MigrateRequest) (host Peer, err error) {
	err = makeJSONRequestOver(conn, http.MethodPost, "/migrate", migrate, &host)
	return
}

func RequestPeersOver(conn net.Conn) (peers []Peer, err error) {
	err = makeJSONRequestOver(conn, http.MethodGet, "/peers", nil, &peers)
	return
}

func JoinOver(conn net.Conn, address string) (peer Peer, err error) {
	err = makeJSONRequestOver(conn, http.MethodPost, "/peers", JoinRequest{Address: address}, &peer)
	return
}

func CreateObject(create CreateObjectRequest) (created CreateObjectResponse, err error) {
	conn, err := DialDaemon()
	if err != nil {
		return
	}
	defer conn.Close()
	return CreateObjectOver(conn, create)
}

func ListObjects() (infos []ObjectInfo, err error) {
	conn, err := DialDaemon()
	if err != nil {
		return
	}
	defer conn.Close()
	return ListObjectsOver(conn)
}

func Invoke(invoke InvokeRequest) (result interface{}, err error) {
	conn, err := DialDaemon()
	if err != nil {
		return
	}
	defer conn.Close()
	return InvokeOver(conn, invoke)
}

func Migrate(migrate MigrateRequest) (host Peer, err error) {
	conn, err := DialDaemon()
	if err != nil {
		return
	}
	defer conn.Close()
	return MigrateOver(conn, migrate)
}

func RequestPeers() (peers []Peer, err error) {
	conn, err := DialDaemon()
	if err != nil {
		return
	}
	defer conn.Close()
	return RequestPeersOver(conn)
}

func Join(address string) (peer Peer, err error) {
	conn, err := DialDaemon()
	if err != nil {
		return
	}
	defer conn.Close()
	return JoinOver(conn, address)
}
