package dvid

import (
	"bytes"

	. "github.com/janelia-flyem/go/gocheck"
)

func (suite *DataSuite) TestSerializeData(c *C) {
	data := bytes.Repeat([]byte("dense texture voxels "), 200)

	for _, compression := range []Compression{Uncompressed, Snappy, Zstd} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := SerializeData(data, compression, checksum)
			c.Assert(err, IsNil)
			if len(s) == 0 {
				c.Errorf("Bad SerializeData() - output length 0")
			}
			if compression != Uncompressed && len(s) >= len(data) {
				c.Errorf("%s did not shrink repetitive data: %d >= %d", compression, len(s), len(data))
			}

			out, stored, err := DeserializeData(s, true)
			c.Assert(err, IsNil)
			c.Assert(stored, Equals, compression)
			c.Assert(bytes.Equal(out, data), Equals, true)

			if checksum != NoChecksum {
				s[len(s)-1] = s[len(s)-1] ^ 0x04 // Flip a bit
				_, _, err = DeserializeData(s, true)
				c.Assert(err, NotNil)
			}
		}
	}
}

func (suite *DataSuite) TestSerializationFormat(c *C) {
	format := EncodeSerializationFormat(Zstd, CRC32)
	compress, checksum := DecodeSerializationFormat(format)
	c.Assert(compress, Equals, Zstd)
	c.Assert(checksum, Equals, CRC32)

	_, err := SerializeData([]byte("x"), Compression(6), NoChecksum)
	c.Assert(err, NotNil)

	_, _, err = DeserializeData(nil, true)
	c.Assert(err, NotNil)
}
