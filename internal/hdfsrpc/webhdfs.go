package hdfsrpc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
)

// webHDFS covers the two NameNode calls the RPC client does not expose:
// block locations and replication changes.
type webHDFS struct {
	base   string
	user   string
	client *http.Client
}

func newWebHDFS(address, user string, client *http.Client) *webHDFS {
	if client == nil {
		client = http.DefaultClient
	}
	return &webHDFS{base: "http://" + address + "/webhdfs/v1", user: user, client: client}
}

type blockLocation struct {
	Hosts  []string `json:"hosts"`
	Offset int64    `json:"offset"`
	Length int64    `json:"length"`
}

type blockLocationsResponse struct {
	BlockLocations struct {
		BlockLocation []blockLocation `json:"BlockLocation"`
	} `json:"BlockLocations"`
}

type remoteException struct {
	RemoteException struct {
		Exception     string `json:"exception"`
		JavaClassName string `json:"javaClassName"`
		Message       string `json:"message"`
	} `json:"RemoteException"`
}

// webError is a failed WebHDFS call. It reports the exception name so
// errnoOf can translate it like an RPC exception.
type webError struct {
	op        string
	status    int
	exception string
	message   string
}

func (e *webError) Error() string {
	if e.exception == "" {
		return fmt.Sprintf("webhdfs %s: status %d", e.op, e.status)
	}
	return fmt.Sprintf("webhdfs %s: %s: %s", e.op, e.exception, e.message)
}

func (e *webError) Exception() string { return e.exception }

func (e *webError) Unwrap() error {
	switch e.status {
	case http.StatusNotFound:
		return syscall.ENOENT
	case http.StatusForbidden, http.StatusUnauthorized:
		return syscall.EACCES
	case http.StatusBadRequest:
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}

func (w *webHDFS) do(method, op, p string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("op", op)
	if w.user != "" {
		params.Set("user.name", w.user)
	}
	u := w.base + (&url.URL{Path: p}).EscapedPath() + "?" + params.Encode()

	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		werr := &webError{op: op, status: resp.StatusCode}
		var remote remoteException
		if err := json.NewDecoder(resp.Body).Decode(&remote); err == nil {
			werr.exception = remote.RemoteException.Exception
			werr.message = remote.RemoteException.Message
		}
		return werr
	}
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// blockLocations returns the hosts of every block overlapping
// [start, start+length), ordered by block offset.
func (w *webHDFS) blockLocations(p string, start, length int64) ([][]string, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(start, 10))
	params.Set("length", strconv.FormatInt(length, 10))

	var resp blockLocationsResponse
	if err := w.do(http.MethodGet, "GETFILEBLOCKLOCATIONS", p, params, &resp); err != nil {
		return nil, err
	}

	blocks := make([][]string, 0, len(resp.BlockLocations.BlockLocation))
	for _, loc := range resp.BlockLocations.BlockLocation {
		blocks = append(blocks, append([]string(nil), loc.Hosts...))
	}
	return blocks, nil
}

func (w *webHDFS) setReplication(p string, replication int16) error {
	params := url.Values{}
	params.Set("replication", strconv.Itoa(int(replication)))

	var resp struct {
		Boolean bool `json:"boolean"`
	}
	if err := w.do(http.MethodPut, "SETREPLICATION", p, params, &resp); err != nil {
		return err
	}
	if !resp.Boolean {
		return syscall.EIO
	}
	return nil
}
