package request

import (
	"bytes"

	"github.com/google/uuid"
)

const boundaryPrefix = "Boundary-"

// NewBoundary returns a random multipart boundary
func NewBoundary() string {
	return boundaryPrefix + uuid.NewString()
}

// MultipartContentType returns the Content-Type value for boundary
func MultipartContentType(boundary string) string {
	return "multipart/form-data; boundary=" + boundary
}

// EncodeMultipart frames file as a single form-data part:
//
//	\r\n--<boundary>\r\n
//	Content-Disposition: form-data; name="<param>"; filename="<file>"\r\n
//	Content-Type: application/octet-stream\r\n\r\n
//	<data>\r\n--<boundary>--\r\n
func EncodeMultipart(boundary string, file MultipartFile) []byte {
	var buf bytes.Buffer
	buf.Grow(len(file.Data) + 2*len(boundary) + len(file.FileName) + len(file.ParamName) + 160)

	buf.WriteString("\r\n--")
	buf.WriteString(boundary)
	buf.WriteString("\r\n")
	buf.WriteString(`Content-Disposition: form-data; name="`)
	buf.WriteString(file.ParamName)
	buf.WriteString(`"; filename="`)
	buf.WriteString(file.FileName)
	buf.WriteString("\"\r\n")
	buf.WriteString("Content-Type: application/octet-stream\r\n\r\n")
	buf.Write(file.Data)
	buf.WriteString("\r\n--")
	buf.WriteString(boundary)
	buf.WriteString("--\r\n")
	return buf.Bytes()
}
