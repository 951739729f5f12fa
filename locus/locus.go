package main

/*
* CLI to control locusd
 */

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli"

	"krypt.co/locus/common/config"
	"krypt.co/locus/common/transport"
	"krypt.co/locus/common/version"

	. "krypt.co/locus/common/protocol"
	. "krypt.co/locus/common/socket"
	. "krypt.co/locus/common/util"

	locusdclient "krypt.co/locus/daemon/client"
	"krypt.co/locus/daemon/objects"
)

func PrintFatal(stderr io.Writer, msg string, args ...interface{}) {
	if len(args) == 0 {
		PrintErr(stderr, "%s", msg)
	} else {
		PrintErr(stderr, msg, args...)
	}
	os.Exit(1)
}

func PrintErr(stderr io.Writer, msg string, args ...interface{}) {
	stderr.Write([]byte(fmt.Sprintf(msg, args...) + "\n"))
}

// daemonSocketOrFatal returns the admin socket of a running locusd,
// starting one if needed.
func daemonSocketOrFatal() (unixFile string) {
	unixFile = DaemonSocketOrFatal()
	if err := EnsureDaemon(unixFile); err != nil {
		PrintFatal(os.Stderr, "%s", Red("locus ▶ "+ErrConnectingToDaemon.Error()+": "+err.Error()))
	}
	return
}

func dial(unixFile string) (conn net.Conn, err error) {
	conn, err = net.Dial("unix", unixFile)
	if err != nil {
		err = ErrConnectingToDaemon
	}
	return
}

func localCenter(unixFile string) locusdclient.RemoteCenter {
	cfg := config.DefaultConfig()
	return locusdclient.RemoteCenter{
		Peer:      Peer{Address: unixFile},
		Transport: transport.NewHTTPTransport(cfg.HTTPTimeout),
		Policy:    cfg.Dispatch,
	}
}

func fatalOnError(err error) error {
	if err != nil {
		PrintFatal(os.Stderr, "%s", Red("locus ▶ "+err.Error()))
	}
	return nil
}

// parseArg reads a command line argument as JSON when it is a valid JSON
// value, so 5 is a number and "5" a string; anything else is a string.
func parseArg(arg string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(arg), &value); err != nil {
		return arg
	}
	return value
}

func formatResult(result interface{}) string {
	if s, ok := result.(string); ok {
		return s
	}
	resultJson, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprint(result)
	}
	return string(resultJson)
}

func requireArgs(c *cli.Context, n int, usage string) {
	if c.NArg() < n {
		PrintFatal(os.Stderr, "usage: locus %s %s", c.Command.Name, usage)
	}
}

func uidOver(unixFile string, stdout io.Writer) (err error) {
	self, err := localCenter(unixFile).GetUID()
	if err != nil {
		return
	}
	fmt.Fprintln(stdout, self.String())
	return
}

func objectsOver(unixFile string, stdout io.Writer) (err error) {
	conn, err := dial(unixFile)
	if err != nil {
		return
	}
	defer conn.Close()
	infos, err := locusdclient.ListObjectsOver(conn)
	if err != nil {
		return
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.ObjectID, info.TypeName, info.DisplayName)
	}
	err = w.Flush()
	return
}

func createOver(unixFile string, typeName string, name string, id string, stdout io.Writer) (err error) {
	conn, err := dial(unixFile)
	if err != nil {
		return
	}
	defer conn.Close()
	created, err := locusdclient.CreateObjectOver(conn, CreateObjectRequest{Type: typeName, Name: name, ObjectID: ObjectID(id)})
	if err != nil {
		return
	}
	fmt.Fprintln(stdout, created.ObjectID)
	return
}

func invokeOver(unixFile string, id string, operation string, args []string, stdout io.Writer) (err error) {
	conn, err := dial(unixFile)
	if err != nil {
		return
	}
	defer conn.Close()
	parsed := make([]interface{}, 0, len(args))
	for _, arg := range args {
		parsed = append(parsed, parseArg(arg))
	}
	result, err := locusdclient.InvokeOver(conn, InvokeRequest{ObjectID: ObjectID(id), Operation: operation, Args: parsed})
	if err != nil {
		return
	}
	if result != nil {
		fmt.Fprintln(stdout, formatResult(result))
	}
	return
}

func locateOver(unixFile string, id string, stdout io.Writer) (err error) {
	host, known, err := localCenter(unixFile).GetLocationOfObject(ObjectID(id))
	if err != nil {
		return
	}
	if !known {
		err = fmt.Errorf("no location known for %s", id)
		return
	}
	fmt.Fprintln(stdout, host.String())
	return
}

func getOver(unixFile string, id string, stdout io.Writer) (err error) {
	object, err := localCenter(unixFile).GetObjectByID(ObjectID(id))
	if err != nil {
		return
	}
	if !object.Present {
		err = fmt.Errorf("%s is not hosted here", id)
		return
	}
	fmt.Fprintf(stdout, "%s\t%s\n", object.TypeName, object.DisplayName)
	return
}

func unregisterOver(unixFile string, id string) (err error) {
	err = localCenter(unixFile).UnregisterObject(ObjectID(id))
	return
}

func migrateOver(unixFile string, id string, destination string, stdout io.Writer) (err error) {
	conn, err := dial(unixFile)
	if err != nil {
		return
	}
	defer conn.Close()
	host, err := locusdclient.MigrateOver(conn, MigrateRequest{ObjectID: ObjectID(id), Destination: destination})
	if err != nil {
		return
	}
	fmt.Fprintln(stdout, host.String())
	return
}

func peersOver(unixFile string, stdout io.Writer) (err error) {
	conn, err := dial(unixFile)
	if err != nil {
		return
	}
	defer conn.Close()
	peers, err := locusdclient.RequestPeersOver(conn)
	if err != nil {
		return
	}
	for _, peer := range peers {
		fmt.Fprintln(stdout, peer.String())
	}
	return
}

func joinOver(unixFile string, address string, stdout io.Writer) (err error) {
	conn, err := dial(unixFile)
	if err != nil {
		return
	}
	defer conn.Close()
	peer, err := locusdclient.JoinOver(conn, address)
	if err != nil {
		return
	}
	fmt.Fprintln(stdout, peer.String())
	return
}

func uidCommand(c *cli.Context) (err error) {
	return fatalOnError(uidOver(daemonSocketOrFatal(), os.Stdout))
}

func objectsCommand(c *cli.Context) (err error) {
	return fatalOnError(objectsOver(daemonSocketOrFatal(), os.Stdout))
}

func createCommand(c *cli.Context) (err error) {
	requireArgs(c, 1, "<type>")
	return fatalOnError(createOver(daemonSocketOrFatal(), c.Args().First(), c.String("name"), c.String("id"), os.Stdout))
}

func invokeCommand(c *cli.Context) (err error) {
	requireArgs(c, 2, "<object-id> <operation> [args...]")
	args := c.Args()
	return fatalOnError(invokeOver(daemonSocketOrFatal(), args.Get(0), args.Get(1), args.Tail()[1:], os.Stdout))
}

func locateCommand(c *cli.Context) (err error) {
	requireArgs(c, 1, "<object-id>")
	return fatalOnError(locateOver(daemonSocketOrFatal(), c.Args().First(), os.Stdout))
}

func getCommand(c *cli.Context) (err error) {
	requireArgs(c, 1, "<object-id>")
	return fatalOnError(getOver(daemonSocketOrFatal(), c.Args().First(), os.Stdout))
}

func unregisterCommand(c *cli.Context) (err error) {
	requireArgs(c, 1, "<object-id>")
	return fatalOnError(unregisterOver(daemonSocketOrFatal(), c.Args().First()))
}

func migrateCommand(c *cli.Context) (err error) {
	requireArgs(c, 2, "<object-id> <uid@address|address>")
	return fatalOnError(migrateOver(daemonSocketOrFatal(), c.Args().Get(0), c.Args().Get(1), os.Stdout))
}

func peersCommand(c *cli.Context) (err error) {
	return fatalOnError(peersOver(daemonSocketOrFatal(), os.Stdout))
}

func joinCommand(c *cli.Context) (err error) {
	requireArgs(c, 1, "<address>")
	return fatalOnError(joinOver(daemonSocketOrFatal(), c.Args().First(), os.Stdout))
}

func envCommand(c *cli.Context) (err error) {
	const ENV_VAR_USAGE = `Useful environment variables:
	LOCUS_HOME=<dir>			State directory holding the admin socket and saved peers (default ~/.locus)
	LOCUS_CONFIG=<file>			YAML config file for locusd
	LOCUS_LISTEN=<host:port>		Address locusd accepts peer requests on
	LOCUS_ADVERTISE=<host:port>		Address announced to peers
	LOCUS_PEERS=<addr,addr>			Centers to join on start
	LOCUS_DISPATCH_ATTEMPTS=<n>		Attempts when forwarding an operation to its host
	LOCUS_PROXY_ATTEMPTS=<n>		Attempts when a proxy forwards to its reference
	LOCUS_PROXY_DELAY=<duration>		Pause between proxy attempts
	LOCUS_LOCATION_CACHE_SIZE=<n>		Remote location hints kept (0 is unbounded)
	LOCUS_BROADCAST_RATE=<n>		Location updates sent per second (0 is unpaced)
	LOCUS_LOG_LEVEL=<log level>		Set log level of locusd
	LOCUS_LOG_SYSLOG=true			Force locusd to log to system log`
	os.Stderr.WriteString(ENV_VAR_USAGE + "\n")
	return
}

func restartCommand(c *cli.Context) (err error) {
	return restartCommandOptions(c, true)
}

func checkDaemonVersion() {
	if os.Getenv("LOCUS_SILENCE_WARNINGS") != "" || !IsLocusdRunning() {
		return
	}
	isLatest, err := locusdclient.IsLatestLocusdRunning()
	if err == nil && !isLatest {
		PrintErr(os.Stderr, "%s", locusdclient.ErrOldLocusdRunning.Error())
	}
}

func main() {
	initTerminal()
	app := cli.NewApp()
	app.Name = "locus"
	app.Usage = "communicate with locusd - the locus communication center daemon"
	app.Version = version.CURRENT_VERSION.String()
	app.Flags = []cli.Flag{}
	app.Before = func(c *cli.Context) error {
		if c.Args().First() != "restart" {
			checkDaemonVersion()
		}
		return nil
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:   "uid",
			Usage:  "Print the UID and address of this host's center",
			Action: uidCommand,
		},
		cli.Command{
			Name:    "objects",
			Aliases: []string{"ls"},
			Usage:   "List objects hosted on this center",
			Action:  objectsCommand,
		},
		cli.Command{
			Name:      "create",
			Usage:     "Create a built-in object (" + strings.Join(objects.Types(), ", ") + ") and host it here",
			ArgsUsage: "<type>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "name, n",
					Usage: "Display name for the object",
				},
				cli.StringFlag{
					Name:  "id",
					Usage: "Register under this object id instead of a fresh one",
				},
			},
			Action: createCommand,
		},
		cli.Command{
			Name:      "invoke",
			Usage:     "Run an operation on an object wherever it lives. Arguments are read as JSON when valid",
			ArgsUsage: "<object-id> <operation> [args...]",
			Action:    invokeCommand,
		},
		cli.Command{
			Name:      "locate",
			Usage:     "Print where this center believes an object lives",
			ArgsUsage: "<object-id>",
			Action:    locateCommand,
		},
		cli.Command{
			Name:      "get",
			Usage:     "Describe an object hosted on this center",
			ArgsUsage: "<object-id>",
			Action:    getCommand,
		},
		cli.Command{
			Name:      "unregister",
			Usage:     "Stop hosting an object on this center",
			ArgsUsage: "<object-id>",
			Action:    unregisterCommand,
		},
		cli.Command{
			Name:      "migrate",
			Usage:     "Move an object hosted here to another center",
			ArgsUsage: "<object-id> <uid@address|address>",
			Action:    migrateCommand,
		},
		cli.Command{
			Name:   "peers",
			Usage:  "List the centers this center knows",
			Action: peersCommand,
		},
		cli.Command{
			Name:      "join",
			Aliases:   []string{"introduce"},
			Usage:     "Introduce this center to the center at an address",
			ArgsUsage: "<address>",
			Action:    joinCommand,
		},
		cli.Command{
			Name:   "env",
			Usage:  "Print useful environment variables for configuring locus/locusd",
			Action: envCommand,
		},
		cli.Command{
			Name:   "restart",
			Usage:  "Restart the locus daemon",
			Action: restartCommand,
		},
	}
	app.Run(os.Args)
}
