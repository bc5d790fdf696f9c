package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gmaffy/whisper-pipe/alignment"
	"github.com/gmaffy/whisper-pipe/utils"
	"github.com/gmaffy/whisper-pipe/variants"
)

// StageOptions parameterises the default stage table.
type StageOptions struct {
	// PairToken is the first-of-pair designator ("R1") that the aligner
	// output name drops.
	PairToken string
	Logger    *slog.Logger
}

// DefaultStages returns the read-to-variant workflow: reference indexing,
// trimming, alignment, BAM clean-up, coverage, reference preparation, variant
// calling and the two VCF tables.
func DefaultStages(opts StageOptions) []StageDefinition {
	if opts.PairToken == "" {
		opts.PairToken = "R1"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return []StageDefinition{
		{
			Name:        "index-reference",
			Description: "bwa index of the alignment reference",
			Cardinality: Global,
			Inputs:      []string{SlotRef},
			Outputs: []Output{
				{Slot: "ref_amb", From: SlotRef, Rule: Append(".amb")},
				{Slot: "ref_ann", From: SlotRef, Rule: Append(".ann")},
				{Slot: "ref_bwt", From: SlotRef, Rule: Append(".bwt")},
				{Slot: "ref_pac", From: SlotRef, Rule: Append(".pac")},
				{Slot: "ref_sa", From: SlotRef, Rule: Append(".sa")},
			},
			Command: alignment.IndexReferenceCmd,
			InPlace: true,
		},
		{
			Name:        "trim",
			Description: "Trimmomatic paired-end adapter and quality trimming",
			Inputs:      []string{SlotR1, SlotR2},
			Outputs: []Output{
				{Slot: "r1_paired", From: SlotR1, Rule: Suffix(".fastq.gz", "_paired.fastq.gz")},
				{Slot: "r1_unpaired", From: SlotR1, Rule: Suffix(".fastq.gz", "_unpaired.fastq.gz")},
				{Slot: "r2_paired", From: SlotR2, Rule: Suffix(".fastq.gz", "_paired.fastq.gz")},
				{Slot: "r2_unpaired", From: SlotR2, Rule: Suffix(".fastq.gz", "_unpaired.fastq.gz")},
			},
			Command: alignment.TrimCmd,
		},
		{
			Name:        "align",
			Description: "bwa mem alignment of the trimmed pairs",
			Inputs:      []string{SlotRef, "r1_paired", "r2_paired"},
			Outputs: []Output{
				{Slot: "sam", From: "r1_paired", Rule: Suffix("_"+opts.PairToken+"_paired.fastq.gz", ".sam")},
			},
			Command: alignment.AlignCmd,
		},
		{
			Name:        "sort",
			Description: "samtools sort to coordinate-ordered BAM",
			Inputs:      []string{"sam"},
			Outputs:     []Output{{Slot: "bam", From: "sam", Rule: Suffix(".sam", ".bam")}},
			Command:     alignment.SortCmd,
		},
		{
			Name:        "index-bam",
			Description: "samtools index of the sorted BAM",
			Inputs:      []string{"bam"},
			Outputs:     []Output{{Slot: "bai", From: "bam", Rule: Append(".bai")}},
			Command:     alignment.IndexBamCmd,
		},
		{
			Name:        "mark-duplicates",
			Description: "Picard MarkDuplicates",
			Inputs:      []string{"bam"},
			Outputs: []Output{
				{Slot: "dedup", From: "bam", Rule: Suffix(".bam", "_dedup.bam")},
				{Slot: "dedup_metrics", From: "bam", Rule: Suffix(".bam", "_dedup_metrics.txt")},
			},
			Command: alignment.MarkDuplicatesCmd,
		},
		{
			Name:        "fix-read-groups",
			Description: "Picard AddOrReplaceReadGroups",
			Inputs:      []string{"dedup"},
			Outputs:     []Output{{Slot: "fixed", From: "dedup", Rule: Suffix("_dedup.bam", "_fixed.bam")}},
			Command:     alignment.FixReadGroupsCmd,
		},
		{
			Name:        "index-fixed",
			Description: "samtools index of the read-group fixed BAM",
			Inputs:      []string{"fixed"},
			Outputs:     []Output{{Slot: "fixed_bai", From: "fixed", Rule: Append(".bai")}},
			Command:     alignment.IndexFixedCmd,
		},
		{
			Name:        "coverage",
			Description: "samtools depth over every reference position",
			Inputs:      []string{"fixed"},
			Outputs:     []Output{{Slot: "coverage", From: "fixed", Rule: Suffix("_fixed.bam", ".coverage")}},
			Command:     alignment.CoverageCmd,
		},
		{
			Name:        "prepare-reference",
			Description: "FASTA index and sequence dictionary of the calling reference",
			Cardinality: Global,
			Inputs:      []string{SlotRefAlt},
			Outputs: []Output{
				{Slot: "ref_alt_fai", From: SlotRefAlt, Rule: Append(".fai")},
				{Slot: "ref_alt_dict", From: SlotRefAlt, Rule: Ext(".dict")},
			},
			Command: variants.PrepareReferenceCmd,
			InPlace: true,
		},
		{
			Name:        "call-variants",
			Description: "GATK HaplotypeCaller",
			Inputs:      []string{SlotRefAlt, "fixed", "fixed_bai"},
			Outputs:     []Output{{Slot: "vcf", From: "fixed", Rule: Suffix("_fixed.bam", ".vcf")}},
			Command:     variants.CallVariantsCmd,
		},
		{
			Name:        "tabulate",
			Description: "CHROM/POS table of the called variants",
			Inputs:      []string{"vcf"},
			Outputs:     []Output{{Slot: "tab", From: "vcf", Rule: Suffix(".vcf", ".tab")}},
			Builtin: func(ctx context.Context, in, out map[string]string) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return variants.VcfToTabFile(in["vcf"], out["tab"])
			},
		},
		{
			Name:        "allele-frequency",
			Description: "alternative allele frequency per variant",
			Inputs:      []string{"vcf"},
			Outputs:     []Output{{Slot: "freq", From: "vcf", Rule: Suffix(".vcf", "_freq.tab")}},
			Builtin: func(ctx context.Context, in, out map[string]string) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				_, err := variants.AlleleFrequencyFile(in["vcf"], out["freq"], logger)
				return err
			},
		},
	}
}

// ApplyOverrides customises a stage table from configuration: commands
// replaces the template of a stage by name, naming the rule of an output by
// slot, and skip drops stages. The result is validated.
func ApplyOverrides(stages []StageDefinition, commands map[string]string, naming map[string]utils.NamingConfig, skip []string) ([]StageDefinition, error) {
	known := make(map[string]bool)
	slots := make(map[string]bool)
	for _, st := range stages {
		known[st.Name] = true
		for _, out := range st.Outputs {
			slots[out.Slot] = true
		}
	}
	for name := range commands {
		if !known[name] {
			return nil, fmt.Errorf("commands: unknown stage %q", name)
		}
	}
	for _, name := range skip {
		if !known[name] {
			return nil, fmt.Errorf("skip_stages: unknown stage %q", name)
		}
	}
	for slot, nc := range naming {
		if !slots[slot] {
			return nil, fmt.Errorf("naming: unknown output slot %q", slot)
		}
		switch RuleKind(nc.Kind) {
		case RuleSuffix, RuleInfix, RuleExt:
		default:
			return nil, fmt.Errorf("naming: %s: unknown rule kind %q", slot, nc.Kind)
		}
	}

	var out []StageDefinition
	for _, st := range stages {
		if slices.Contains(skip, st.Name) {
			continue
		}
		if cmd, ok := commands[st.Name]; ok {
			st.Command = cmd
			st.Builtin = nil
		}
		st.Outputs = slices.Clone(st.Outputs)
		for i, o := range st.Outputs {
			if nc, ok := naming[o.Slot]; ok {
				st.Outputs[i].Rule = Rule{Kind: RuleKind(nc.Kind), Old: nc.Old, New: nc.New}
			}
		}
		out = append(out, st)
	}
	if err := ValidateStages(out); err != nil {
		return nil, err
	}
	return out, nil
}

// StageNames returns the names of stages in order.
func StageNames(stages []StageDefinition) []string {
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.Name
	}
	return names
}
