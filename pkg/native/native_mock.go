package native

import "github.com/stretchr/testify/mock"

type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Connect(host string, port int, user string) (Session, error) {
	args := m.Called(host, port, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Session), args.Error(1)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Disconnect() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockSession) Exists(path string) (int, error) {
	args := m.Called(path)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) Delete(path string, recursive bool) (int, error) {
	args := m.Called(path, recursive)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) Rename(oldPath, newPath string) (int, error) {
	args := m.Called(oldPath, newPath)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) Copy(src string, dst Session, dstPath string) (int, error) {
	args := m.Called(src, dst, dstPath)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) Move(src string, dst Session, dstPath string) (int, error) {
	args := m.Called(src, dst, dstPath)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) GetWorkingDirectory(buf []byte) ([]byte, error) {
	args := m.Called(buf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSession) SetWorkingDirectory(path string) (int, error) {
	args := m.Called(path)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) CreateDirectory(path string) (int, error) {
	args := m.Called(path)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) SetReplication(path string, replication int16) (int, error) {
	args := m.Called(path, replication)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) ListDirectory(path string) (FileInfoList, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(FileInfoList), args.Error(1)
}

func (m *MockSession) GetPathInfo(path string) (*FileInfo, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FileInfo), args.Error(1)
}

func (m *MockSession) GetHosts(path string, start, length int64) (BlockHosts, error) {
	args := m.Called(path, start, length)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(BlockHosts), args.Error(1)
}

func (m *MockSession) OpenFile(path *string, flags OpenFlags, bufferSize int, replication int16, blockSize int64) (File, error) {
	args := m.Called(path, flags, bufferSize, replication, blockSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(File), args.Error(1)
}

func (m *MockSession) GetDefaultBlockSize() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSession) GetCapacity() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSession) GetUsed() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

type MockFile struct {
	mock.Mock
}

func (m *MockFile) Read(buf []byte) (int32, error) {
	args := m.Called(buf)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockFile) Pread(position int64, buf []byte) (int32, error) {
	args := m.Called(position, buf)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockFile) Write(buf []byte) (int32, error) {
	args := m.Called(buf)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockFile) Flush() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockFile) Seek(position int64) (int, error) {
	args := m.Called(position)
	return args.Int(0), args.Error(1)
}

func (m *MockFile) Tell() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFile) Available() (int32, error) {
	args := m.Called()
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockFile) Close() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

// StaticFileInfoList is a FileInfoList over a fixed slice that counts Free calls.
type StaticFileInfoList struct {
	Items []FileInfo
	Freed int
}

func (l *StaticFileInfoList) Entries() []FileInfo { return l.Items }
func (l *StaticFileInfoList) Len() int            { return len(l.Items) }
func (l *StaticFileInfoList) Free()               { l.Freed++ }

// StaticBlockHosts is a BlockHosts over a fixed slice that counts Free calls.
type StaticBlockHosts struct {
	Items [][]string
	Freed int
}

func (h *StaticBlockHosts) Blocks() [][]string { return h.Items }
func (h *StaticBlockHosts) Free()              { h.Freed++ }
