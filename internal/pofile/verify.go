package pofile

import (
	"os"

	"github.com/leonelquinteros/gotext"
)

// Verify 用 gotext 独立解析写出的内容，返回查不到预期译文的条目
//
// 只检查有译文的单数条目；复数条目按复数公式取值，不在这里比较。
func Verify(data []byte, entries []*Entry) []*Entry {
	po := gotext.NewPo()
	po.Parse(data)

	var mismatched []*Entry
	for _, e := range entries {
		if e.Obsolete || e.IsPlural() || e.MsgID == "" || e.MsgStr == "" || e.IsFuzzy() {
			continue
		}

		var got string
		if e.MsgCtxt != "" {
			got = po.GetC(e.MsgID, e.MsgCtxt)
		} else {
			got = po.Get(e.MsgID)
		}
		if got != e.MsgStr {
			mismatched = append(mismatched, e)
		}
	}
	return mismatched
}

// VerifyFile 读取文件后调用 Verify
func VerifyFile(path string, entries []*Entry) ([]*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Verify(data, entries), nil
}
