package variants

const (
	// PrepareReferenceCmd builds the FASTA index and sequence dictionary the
	// variant caller needs next to the reference. CreateSequenceDictionary
	// will not overwrite a dictionary, so a stale one is removed first.
	PrepareReferenceCmd = `samtools faidx {{ref_alt}} && rm -f {{ref_alt_dict}} && ` +
		`java -jar {{picard}} CreateSequenceDictionary R={{ref_alt}} O={{ref_alt_dict}}`

	// The VCF is written under a temporary name and renamed, so no index is
	// created next to it.
	CallVariantsCmd = `gatk --java-options "-Xmx8G" HaplotypeCaller -R {{ref_alt}} -I {{fixed}} -O {{vcf}} ` +
		`--create-output-variant-index false`
)
