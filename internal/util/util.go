package util

import (
	"strconv"

	"github.com/bloops-games/biasbingo/internal/strpool"
)

func Noun(number int, one, many string) string {
	if number == 1 || number == -1 {
		return one
	}
	return many
}

// Clock formats seconds as MM:SS, or H:MM:SS from one hour on.
func Clock(secs int) string {
	if secs < 0 {
		secs = 0
	}

	buf := strpool.Get()
	defer strpool.Put(buf)

	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		buf.WriteString(strconv.Itoa(h))
		buf.WriteByte(':')
	}
	pad2(buf, m)
	buf.WriteByte(':')
	pad2(buf, s)

	return buf.String()
}

// Elapsed formats seconds as "Xm Ys".
func Elapsed(secs int) string {
	if secs < 0 {
		secs = 0
	}

	buf := strpool.Get()
	defer strpool.Put(buf)

	buf.WriteString(strconv.Itoa(secs / 60))
	buf.WriteString("m ")
	buf.WriteString(strconv.Itoa(secs % 60))
	buf.WriteByte('s')

	return buf.String()
}

type byteWriter interface {
	WriteByte(c byte) error
}

func pad2(w byteWriter, n int) {
	_ = w.WriteByte(byte('0' + n/10%10))
	_ = w.WriteByte(byte('0' + n%10))
}
