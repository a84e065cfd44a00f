package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// onelineRenderer prints "age:total:accessed:modified:directory", sizes in
// bytes and age in whole seconds.
type onelineRenderer struct{}

func (onelineRenderer) Render(w io.Writer, rep *model.Report) error {
	for _, d := range rep.Directories {
		_, err := fmt.Fprintf(w, "%d:%d:%d:%d:%s\n",
			int64(ageSeconds(d)), d.TotalBytes, d.AccessedBytes, d.ModifiedBytes, d.Path)
		if err != nil {
			return err
		}
	}
	return nil
}

type tableRenderer struct {
	color bool
}

func (t *tableRenderer) Render(w io.Writer, rep *model.Report) error {
	head := color.New(color.Bold)
	if t.color {
		head.EnableColor()
	} else {
		head.DisableColor()
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderLine(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	var header []string
	for _, h := range []string{"AGE", "TOTAL", "ACCESSED", "MODIFIED", "FILES", "DIRECTORY"} {
		header = append(header, head.Sprint(h))
	}
	table.SetHeader(header)
	for _, d := range rep.Directories {
		table.Append([]string{
			formatAge(d),
			humanize.IBytes(uint64(d.TotalBytes)),
			humanize.IBytes(uint64(d.AccessedBytes)),
			humanize.IBytes(uint64(d.ModifiedBytes)),
			strconv.Itoa(d.Files),
			d.Path,
		})
	}
	table.Render()
	return nil
}
