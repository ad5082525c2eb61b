package dvid

import (
	"testing"

	. "github.com/janelia-flyem/go/gocheck"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type DataSuite struct{}

var _ = Suite(&DataSuite{})

func (s *DataSuite) TestPoint3d(c *C) {
	a := Point3d{10, 21, 837821}
	b := Point3d{78312, -200, 40123}
	result := a.Add(b)
	c.Assert(result.Value(0), Equals, a[0]+b[0])
	c.Assert(result.Value(1), Equals, a[1]+b[1])
	c.Assert(result.Value(2), Equals, a[2]+b[2])

	result = a.Sub(b)
	c.Assert(result.Value(0), Equals, a[0]-b[0])
	c.Assert(result.Value(1), Equals, a[1]-b[1])
	c.Assert(result.Value(2), Equals, a[2]-b[2])

	c.Assert(a.String(), Equals, "(10,21,837821)")
	c.Assert(a.MaxDim(), Equals, int32(837821))

	_, err := a.CheckedValue(3)
	c.Assert(err, NotNil)
}

func (s *DataSuite) TestExtents(c *C) {
	ext := Point3d{4, 3, 2}
	c.Assert(ext.Positive(), Equals, true)
	c.Assert(ext.Prod(), Equals, int64(24))
	c.Assert(ext.Index(0, 0, 0), Equals, 0)
	c.Assert(ext.Index(1, 0, 0), Equals, 1)
	c.Assert(ext.Index(0, 1, 0), Equals, 4)
	c.Assert(ext.Index(3, 2, 1), Equals, 23)

	c.Assert(Point3d{0, 3, 2}.Positive(), Equals, false)
	c.Assert(Point3d{4, -1, 2}.Positive(), Equals, false)

	c.Assert(ext.DivScalar(2), DeepEquals, Point3d{2, 1, 1})
	c.Assert(Point3d{17, 8, 1}.DivScalar(8), DeepEquals, Point3d{2, 1, 1})
}

func (s *DataSuite) TestMinMax(c *C) {
	p := Point3d{5, -2, 9}
	p.SetMinimum(Point3d{3, 0, 10})
	c.Assert(p, DeepEquals, Point3d{3, -2, 9})
	p.SetMaximum(Point3d{4, 7, 1})
	c.Assert(p, DeepEquals, Point3d{4, 7, 9})
}

func (s *DataSuite) TestPointBytes(c *C) {
	p := Point3d{-8, 300, 70000}
	b := p.Bytes()
	c.Assert(len(b), Equals, 12)
	p2, err := Point3dFromBytes(b)
	c.Assert(err, IsNil)
	c.Assert(p2, DeepEquals, p)

	_, err = Point3dFromBytes(b[:7])
	c.Assert(err, NotNil)
}
