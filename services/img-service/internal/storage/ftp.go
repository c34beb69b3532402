package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"mashalpipes.in/Website/services/img-service/internal/domain"
)

var _ domain.FileSink = (*FTPSink)(nil)

// ftpSession is the subset of FTP commands the sink needs.
type ftpSession interface {
	Store(remotePath string, r io.Reader) error
	Retrieve(remotePath string) (io.ReadCloser, error)
	Remove(remotePath string) error
	Size(remotePath string) (int64, error)
	MakeDir(remotePath string) error
	Quit() error
}

type ftpDialer func(ctx context.Context) (ftpSession, error)

// FTPSink stores uploads in a directory of an FTP server. A control
// connection is opened per operation because ftp.ServerConn is not safe for concurrent use.
type FTPSink struct {
	dial ftpDialer
	dir  string
}

func NewFTPSink(host, port, user, password, dir string) *FTPSink {
	addr := host + ":" + port
	dial := func(ctx context.Context) (ftpSession, error) {
		conn, err := ftp.Dial(addr, ftp.DialWithTimeout(10*time.Second), ftp.DialWithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to FTP: %w", err)
		}
		if err := conn.Login(user, password); err != nil {
			conn.Quit()
			return nil, fmt.Errorf("failed to login to FTP: %w", err)
		}
		return &serverSession{conn: conn}, nil
	}
	return newFTPSink(dial, dir)
}

func newFTPSink(dial ftpDialer, dir string) *FTPSink {
	return &FTPSink{dial: dial, dir: dir}
}

func (s *FTPSink) remotePath(name string) string {
	return path.Join(s.dir, name)
}

// Save refuses to replace an existing file. The SIZE check and STOR are two
// commands, so two writers racing on one name are only prevented by unique names.
func (s *FTPSink) Save(ctx context.Context, name string, body io.Reader, _ int64, _ string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	sess, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Quit()

	if s.dir != "" {
		_ = sess.MakeDir(s.dir) // usually already exists
	}
	p := s.remotePath(name)
	if _, err := sess.Size(p); err == nil {
		return fmt.Errorf("ftp file %q: %w", name, os.ErrExist)
	}
	if err := sess.Store(p, body); err != nil {
		// the server keeps whatever arrived before the transfer broke
		if rmErr := sess.Remove(p); rmErr != nil && !errors.Is(rmErr, domain.ErrFileNotFound) {
			return fmt.Errorf("failed to upload file: %w (cleanup: %v)", err, rmErr)
		}
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *FTPSink) Open(ctx context.Context, name string) (*domain.StoredFile, error) {
	if !ValidName(name) {
		return nil, domain.ErrFileNotFound
	}
	sess, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	p := s.remotePath(name)
	size, err := sess.Size(p)
	if err != nil {
		sess.Quit()
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	body, err := sess.Retrieve(p)
	if err != nil {
		sess.Quit()
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return &domain.StoredFile{
		Name:        name,
		Size:        size,
		ContentType: ContentTypeFor(name),
		Body:        &sessionReadCloser{ReadCloser: body, sess: sess},
	}, nil
}

func (s *FTPSink) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return domain.ErrFileNotFound
	}
	sess, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Quit()
	if err := sess.Remove(s.remotePath(name)); err != nil && !errors.Is(err, domain.ErrFileNotFound) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// sessionReadCloser ends the FTP session once the transfer is closed.
type sessionReadCloser struct {
	io.ReadCloser
	sess ftpSession
}

func (r *sessionReadCloser) Close() error {
	err := r.ReadCloser.Close()
	if qerr := r.sess.Quit(); err == nil {
		err = qerr
	}
	return err
}

// serverSession adapts *ftp.ServerConn and maps 550 replies to ErrFileNotFound.
type serverSession struct {
	conn *ftp.ServerConn
}

func mapFTPError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code == ftp.StatusFileUnavailable {
		return domain.ErrFileNotFound
	}
	return err
}

func (s *serverSession) Store(remotePath string, r io.Reader) error {
	return s.conn.Stor(remotePath, r)
}

func (s *serverSession) Retrieve(remotePath string) (io.ReadCloser, error) {
	resp, err := s.conn.Retr(remotePath)
	if err != nil {
		return nil, mapFTPError(err)
	}
	return resp, nil
}

func (s *serverSession) Remove(remotePath string) error {
	return mapFTPError(s.conn.Delete(remotePath))
}

func (s *serverSession) Size(remotePath string) (int64, error) {
	n, err := s.conn.FileSize(remotePath)
	if err != nil {
		return 0, mapFTPError(err)
	}
	return n, nil
}

func (s *serverSession) MakeDir(remotePath string) error {
	return s.conn.MakeDir(remotePath)
}

func (s *serverSession) Quit() error {
	return s.conn.Quit()
}
