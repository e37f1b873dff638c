package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"docforge/internal/coordinator"
	"docforge/internal/daemon"
	"docforge/internal/document"
	"docforge/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. requestStop
// is invoked when a client asks the daemon to shut down.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, coord *coordinator.Coordinator, requestStop func(), logger *slog.Logger) (*Server, error) {
	if d == nil || coord == nil {
		return nil, errors.New("ipc server requires daemon and coordinator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, coord: coord, requestStop: requestStop, logger: logger}
	if err := rpcServer.RegisterName("Docforge", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	svc.ctx = serverCtx
	return &Server{
		path:      path,
		logger:    logging.NewComponentLogger(logger, "ipc"),
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the socket file manually before the next start"))
	}
}

type service struct {
	daemon      *daemon.Daemon
	coord       *coordinator.Coordinator
	requestStop func()
	logger      *slog.Logger
	ctx         context.Context
}

func (s *service) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	st := s.daemon.Status(s.ctx)
	resp.Running = st.Running
	resp.PID = st.PID
	resp.StartedAt = st.StartedAt
	resp.QueueDepth = st.QueueDepth
	resp.CurrentDocument = st.CurrentDocument
	resp.SessionCompleted = st.SessionCompleted
	resp.LastError = st.LastError
	resp.StatusFilePath = st.StatusFilePath
	resp.LockFilePath = st.LockFilePath
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested via ipc",
		logging.String(logging.FieldEventType, "daemon_stop"))
	if s.requestStop != nil {
		s.requestStop()
	}
	resp.Stopped = true
	return nil
}

func (s *service) List(req ListRequest, resp *ListResponse) error {
	records, err := s.coord.List(s.ctx)
	if err != nil {
		return err
	}
	if len(req.Statuses) == 0 {
		resp.Documents = records
		return nil
	}
	wanted := make(map[document.Status]struct{}, len(req.Statuses))
	for _, raw := range req.Statuses {
		if status, ok := document.ParseStatus(raw); ok {
			wanted[status] = struct{}{}
		}
	}
	for _, rec := range records {
		if _, ok := wanted[rec.Status]; ok {
			resp.Documents = append(resp.Documents, rec)
		}
	}
	return nil
}

func (s *service) Describe(req DescribeRequest, resp *DescribeResponse) error {
	rec, found, err := s.coord.Get(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Found = found
	resp.Document = rec
	return nil
}

func (s *service) Add(req AddRequest, resp *AddResponse) error {
	rec, err := s.coord.Submit(s.ctx, req.Path)
	if err != nil {
		return err
	}
	queued, err := s.coord.Enqueue(s.ctx, rec.ID, req.Options)
	if err != nil {
		return err
	}
	resp.Document = queued
	return nil
}

func (s *service) Cancel(req CancelRequest, resp *CancelResponse) error {
	if err := s.coord.RequestCancel(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Requested = true
	return nil
}

func (s *service) Reset(req ResetRequest, resp *DescribeResponse) error {
	rec, err := s.coord.Reset(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Found = true
	resp.Document = rec
	return nil
}

func (s *service) Reprocess(req ReprocessRequest, resp *DescribeResponse) error {
	rec, err := s.coord.Reprocess(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Found = true
	resp.Document = rec
	return nil
}

func (s *service) QueueList(_ QueueListRequest, resp *QueueListResponse) error {
	ids, err := s.coord.Pending(s.ctx)
	if err != nil {
		return err
	}
	resp.IDs = ids
	return nil
}
