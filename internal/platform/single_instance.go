package platform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

// InstanceGuard holds the single-instance lock: a loopback listener on a
// port derived from the app and user names. The holder answers every
// connection with its PID so a second launch can say who is running.
type InstanceGuard struct {
	listener net.Listener
	address  string
}

// AcquireSingleInstance binds the lock port. When another instance holds it,
// the returned error wraps ErrAlreadyRunning and names that instance's PID
// when it can be read.
func AcquireSingleInstance(appName string) (*InstanceGuard, error) {
	address := fmt.Sprintf("127.0.0.1:%d", portFromName(instanceKey(appName)))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		if pid, ok := queryHolderPID(address); ok {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		return nil, ErrAlreadyRunning
	}

	guard := &InstanceGuard{listener: listener, address: address}
	go guard.serve()
	return guard, nil
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	return guard.listener.Close()
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func (guard *InstanceGuard) serve() {
	pid := strconv.Itoa(os.Getpid()) + "\n"
	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_, _ = conn.Write([]byte(pid))
		_ = conn.Close()
	}
}

func queryHolderPID(address string) (int, bool) {
	conn, err := net.DialTimeout("tcp", address, time.Second)
	if err != nil {
		return 0, false
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// instanceKey scopes the lock to the current user so each desktop session
// on a shared machine can run its own monitor.
func instanceKey(appName string) string {
	if current, err := user.Current(); err == nil && current.Username != "" {
		return appName + "/" + current.Username
	}
	return appName
}

func portFromName(appName string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
