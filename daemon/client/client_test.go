package client

import (
	"errors"
	"net"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krypt.co/locus/common/config"
	"krypt.co/locus/common/log"
	"krypt.co/locus/common/transport"
	"krypt.co/locus/common/version"
	"krypt.co/locus/daemon/control"

	. "krypt.co/locus/common/protocol"
)

func dial(t *testing.T, unixFile string) net.Conn {
	conn, err := net.Dial("unix", unixFile)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestVersion(t *testing.T) {
	_, _, unixFile := control.NewLocalUnixServer(t)

	v, err := RequestLocusdVersionOver(dial(t, unixFile))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Compare(version.CURRENT_VERSION))
}

func TestCreateInvokeAndList(t *testing.T) {
	c, _, unixFile := control.NewLocalUnixServer(t)

	created, err := CreateObjectOver(dial(t, unixFile), CreateObjectRequest{Type: "counter", Name: "hits"})
	require.NoError(t, err)
	assert.Equal(t, c.Self(), created.Host)

	result, err := InvokeOver(dial(t, unixFile), InvokeRequest{ObjectID: created.ObjectID, Operation: "add", Args: []interface{}{5}})
	require.NoError(t, err)
	assert.Equal(t, float64(5), result)

	infos, err := ListObjectsOver(dial(t, unixFile))
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, created.ObjectID, infos[0].ObjectID)
	assert.Equal(t, "hits", infos[0].DisplayName)

	_, err = InvokeOver(dial(t, unixFile), InvokeRequest{ObjectID: "missing", Operation: "get"})
	var unknown *UnknownObjectError
	require.True(t, errors.As(err, &unknown), "got %v", err)
	assert.Equal(t, ObjectID("missing"), unknown.ObjectID)

	_, err = CreateObjectOver(dial(t, unixFile), CreateObjectRequest{Type: "teapot"})
	assert.Error(t, err)
}

func TestJoinRouteAndMigrate(t *testing.T) {
	a, _, aFile := control.NewLocalUnixServer(t)
	b, _, bFile := control.NewLocalUnixServer(t)

	joined, err := JoinOver(dial(t, aFile), bFile)
	require.NoError(t, err)
	assert.True(t, joined.Equals(b.Self()))

	peers, err := RequestPeersOver(dial(t, bFile))
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.True(t, peers[0].Equals(a.Self()))

	created, err := CreateObjectOver(dial(t, aFile), CreateObjectRequest{Type: "counter"})
	require.NoError(t, err)

	//	b learned the location from a's broadcast and forwards to a
	result, err := InvokeOver(dial(t, bFile), InvokeRequest{ObjectID: created.ObjectID, Operation: "add"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), result)

	host, err := MigrateOver(dial(t, aFile), MigrateRequest{ObjectID: created.ObjectID, Destination: bFile})
	require.NoError(t, err)
	assert.True(t, host.Equals(b.Self()))
	assert.Equal(t, []ObjectID{created.ObjectID}, b.GetAllLocalObjectIDs())

	result, err = InvokeOver(dial(t, aFile), InvokeRequest{ObjectID: created.ObjectID, Operation: "get"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), result)

	_, err = MigrateOver(dial(t, aFile), MigrateRequest{ObjectID: created.ObjectID, Destination: bFile})
	assert.Error(t, err)
}

func TestRemoteCenter(t *testing.T) {
	c, _, unixFile := control.NewLocalUnixServer(t)
	rc := RemoteCenter{
		Peer:      Peer{Address: unixFile},
		Transport: transport.NewHTTPTransport(config.DefaultConfig().HTTPTimeout),
		Policy:    config.DefaultConfig().Dispatch,
		Log:       log.SetupLogging("test", logging.INFO, false),
	}

	self, err := rc.GetUID()
	require.NoError(t, err)
	assert.Equal(t, c.Self(), self)

	created, err := CreateObjectOver(dial(t, unixFile), CreateObjectRequest{Type: "note", Name: "todo"})
	require.NoError(t, err)

	ids, err := rc.GetAllLocalObjectIDs()
	require.NoError(t, err)
	assert.Equal(t, []ObjectID{created.ObjectID}, ids)

	_, err = rc.ExecuteMethodIn("set", []interface{}{"milk"}, created.ObjectID)
	require.NoError(t, err)
	result, err := rc.ExecuteMethodIn("get", nil, created.ObjectID)
	require.NoError(t, err)
	assert.Equal(t, "milk", result)

	host, known, err := rc.GetLocationOfObject(created.ObjectID)
	require.NoError(t, err)
	assert.True(t, known)
	assert.True(t, host.Equals(c.Self()))

	object, err := rc.GetObjectByID(created.ObjectID)
	require.NoError(t, err)
	assert.True(t, object.Present)
	assert.Equal(t, "todo", object.DisplayName)

	elsewhere := Peer{UID: NewCenterID(), Address: "10.0.0.9:7300"}
	require.NoError(t, rc.IntroduceNewCommunicationCenter(elsewhere))
	assert.Equal(t, []Peer{elsewhere}, c.Peers())

	other := ObjectID("other")
	require.NoError(t, rc.UpdateObjectLocations([]ObjectID{other}, elsewhere))
	host, known, err = rc.GetLocationOfObject(other)
	require.NoError(t, err)
	assert.True(t, known)
	assert.True(t, host.Equals(elsewhere))

	require.NoError(t, rc.UnregisterObject(created.ObjectID))
	_, err = rc.ExecuteMethodIn("get", nil, created.ObjectID)
	var unknownLocal *UnknownLocalObjectError
	assert.True(t, errors.As(err, &unknownLocal), "got %v", err)

	moved := RemoteCenter{Peer: Peer{UID: self.UID, Address: "10.0.0.1:7300"}}
	assert.True(t, moved.Equals(RemoteCenter{Peer: self}))
	assert.False(t, rc.Equals(moved))
}
