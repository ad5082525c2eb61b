package dvid

import (
	"fmt"

	. "github.com/janelia-flyem/go/gocheck"
)

type recordingLogger struct {
	msgs []string
}

func (r *recordingLogger) record(level, format string, args ...interface{}) {
	r.msgs = append(r.msgs, level+" "+fmt.Sprintf(format, args...))
}

func (r *recordingLogger) Debugf(format string, args ...interface{}) {
	r.record("DEBUG", format, args...)
}
func (r *recordingLogger) Infof(format string, args ...interface{}) {
	r.record("INFO", format, args...)
}
func (r *recordingLogger) Warningf(format string, args ...interface{}) {
	r.record("WARNING", format, args...)
}
func (r *recordingLogger) Errorf(format string, args ...interface{}) {
	r.record("ERROR", format, args...)
}
func (r *recordingLogger) Criticalf(format string, args ...interface{}) {
	r.record("CRITICAL", format, args...)
}
func (r *recordingLogger) Shutdown() {}

func (s *DataSuite) TestLogMode(c *C) {
	rec := &recordingLogger{}
	SetLogger(rec)
	oldMode := LogMode()
	defer func() {
		SetLogger(nil)
		SetLogMode(oldMode)
	}()

	SetLogMode(WarningMode)
	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warningf("warning %d", 3)
	Errorf("error %d", 4)
	c.Assert(rec.msgs, DeepEquals, []string{"WARNING warning 3", "ERROR error 4"})

	rec.msgs = nil
	SetLogMode(SilentMode)
	Criticalf("critical")
	c.Assert(len(rec.msgs), Equals, 0)

	SetLogMode(DebugMode)
	tlog := NewTimeLog()
	tlog.Debugf("filled %d voxels", 8)
	c.Assert(len(rec.msgs), Equals, 1)
	c.Assert(rec.msgs[0][:len("DEBUG filled 8 voxels")], Equals, "DEBUG filled 8 voxels")
}
