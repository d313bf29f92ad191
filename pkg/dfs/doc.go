// Package dfs is a typed client facade over a libhdfs-style native filesystem
// client (package native).
//
// Every native call is trapped uniformly: a negative integer or nil result
// becomes an *Error carrying the operation, the path(s) involved and the
// connection's endpoint, with the native errno as its cause. Successful
// results pass through unchanged. Nothing is retried and nothing is swallowed,
// except by Exists, which reports any failure as false.
//
// Native buffers (listings, block-host arrays) are copied into Go values and
// released before a call returns, on success and failure alike.
//
//	conn, err := dfs.Connect(driver, "namenode", 8020)
//	if err != nil {
//		return err
//	}
//	defer conn.Disconnect()
//
//	entries, err := conn.ListDirectory("/data")
//	if errors.Is(err, fs.ErrNotExist) {
//		...
//	}
package dfs
