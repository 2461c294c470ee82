package rag_test

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"encoding/binary"
	"fmt"
	"strings"
)

// standard security handler padding, PDF 32000-1 7.6.3.3
var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// BuildPDF writes a minimal uncompressed PDF with one text line per page.
// With no pages it writes an empty page tree (/Count 0).
func BuildPDF(pages ...string) []byte {
	return buildPDF(pages, nil)
}

// BuildEncryptedPDF marks the file with an RC4 40 bit Standard security handler.
// An empty userPassword gives a file any reader can open without prompting.
func BuildEncryptedPDF(userPassword string, pages ...string) []byte {
	return buildPDF(pages, &userPassword)
}

func buildPDF(pages []string, userPassword *string) []byte {
	var objs []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		objs = append(objs, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	trailerExtra := ""
	if userPassword != nil {
		id := []byte("documind-test-id")
		owner := bytes.Repeat([]byte{0x42}, 32)
		const permissions int32 = -4
		user := userEntry(*userPassword, owner, permissions, id)
		objs = append(objs, fmt.Sprintf("<< /Filter /Standard /V 1 /R 2 /Length 40 /P %d /O <%x> /U <%x> >>", permissions, owner, user))
		trailerExtra = fmt.Sprintf(" /Encrypt %d 0 R /ID [<%x> <%x>]", len(objs), id, id)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, trailerExtra, xref)
	return buf.Bytes()
}

// userEntry computes the /U value for revision 2 so that password opens the file.
func userEntry(password string, owner []byte, permissions int32, id []byte) []byte {
	pw := append([]byte(password), passwordPad...)[:32]
	h := md5.New()
	h.Write(pw)
	h.Write(owner)
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, uint32(permissions))
	h.Write(p)
	h.Write(id)
	key := h.Sum(nil)[:5]

	c, _ := rc4.NewCipher(key)
	u := make([]byte, 32)
	copy(u, passwordPad)
	c.XORKeyStream(u, u)
	return u
}
