package alignment

// Command templates for the read processing stages. Tags name stage slots
// (r1, bam, fixed, ...) or configured values (threads, sample, picard, ...);
// they are expanded to shell-quoted strings before the line is run with bash.
const (
	IndexReferenceCmd = `bwa index {{ref}}`

	TrimCmd = `java -jar {{trimmomatic}} PE -threads {{threads}} ` +
		`{{r1}} {{r2}} {{r1_paired}} {{r1_unpaired}} {{r2_paired}} {{r2_unpaired}} ` +
		`ILLUMINACLIP:{{adapters}}:2:30:10 LEADING:3 TRAILING:3 SLIDINGWINDOW:4:15 MINLEN:36`

	AlignCmd = `bwa mem -t {{threads}} -M {{ref}} {{r1_paired}} {{r2_paired}} > {{sam}}`

	SortCmd = `samtools sort -@ {{threads}} -o {{bam}} {{sam}}`

	IndexBamCmd = `samtools index {{bam}} {{bai}}`

	MarkDuplicatesCmd = `java -Xmx8G -jar {{picard}} MarkDuplicates I={{bam}} O={{dedup}} M={{dedup_metrics}}`

	FixReadGroupsCmd = `java -jar {{picard}} AddOrReplaceReadGroups I={{dedup}} O={{fixed}} ` +
		`RGID={{sample}}.1 RGLB=lib1 RGPL=ILLUMINA RGPU=unit1 RGSM={{sample}}`

	IndexFixedCmd = `samtools index {{fixed}} {{fixed_bai}}`

	CoverageCmd = `samtools depth -a {{fixed}} > {{coverage}}`
)
