package variants

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxLine = 16 * 1024 * 1024

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return sc
}

// VcfToTab keeps the CHROM and POS columns of a VCF: meta lines ("##") are
// dropped, the "#CHROM" header and every record are cut to two columns.
func VcfToTab(r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	sc := newLineScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "##") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) > 2 {
			parts = parts[:2]
		}
		if _, err := bw.WriteString(strings.Join(parts, "\t") + "\n"); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return bw.Flush()
}

// VcfToTabFile converts inVCF into outTab.
func VcfToTabFile(inVCF, outTab string) (err error) {
	in, err := os.Open(inVCF)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outTab)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); err == nil {
			err = cErr
		}
	}()
	return VcfToTab(in, out)
}

// ConvertVcfDir writes <name>.tab next to every *.vcf in dir and returns the
// converted pairs in name order.
func ConvertVcfDir(dir string) ([][2]string, error) {
	vcfs, err := filepath.Glob(filepath.Join(dir, "*.vcf"))
	if err != nil {
		return nil, err
	}
	sort.Strings(vcfs)

	var done [][2]string
	for _, vcf := range vcfs {
		tab := strings.TrimSuffix(vcf, ".vcf") + ".tab"
		if err := VcfToTabFile(vcf, tab); err != nil {
			return done, fmt.Errorf("%s: %w", vcf, err)
		}
		done = append(done, [2]string{vcf, tab})
	}
	return done, nil
}
