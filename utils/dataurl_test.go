package utils_test

import (
	"encoding/base64"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"foodwagen/utils"
)

type dataURLSuite struct{}

var _ = gc.Suite(&dataURLSuite{})

func (s *dataURLSuite) TestParse(c *gc.C) {
	raw := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	d, err := utils.ParseBase64DataURL(raw)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(d.ContentType, gc.Equals, "image/png")
	c.Assert(string(d.Data), gc.Equals, "png-bytes")
	c.Assert(d.Ext(), gc.Equals, ".png")
}

func (s *dataURLSuite) TestJPEGExtension(c *gc.C) {
	c.Assert(utils.DataURL{ContentType: "image/jpeg"}.Ext(), gc.Equals, ".jpg")
}

func (s *dataURLSuite) TestInvalid(c *gc.C) {
	for _, raw := range []string{
		"",
		"image/png;base64",
		"image/png;base64,aGk=",
		"data:image/png,aGk=",
		"data:text/plain;base64,aGk=",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
	} {
		_, err := utils.ParseBase64DataURL(raw)
		c.Check(err, jc.ErrorIs, errors.NotValid, gc.Commentf("%q", raw))
	}
}
