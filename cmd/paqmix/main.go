// Command paqmix compresses and decompresses files with the chain-mixed
// bit predictor in package predictor, driving the range coder in
// package coding.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/coding"
	"github.com/colewyeth/paqmix/lut"
	"github.com/colewyeth/paqmix/predictor"
)

var (
	windowCapacity = flag.Uint64("window", 10_000_000, "sliding window capacity, in bytes")
	finalizerName  = flag.String("finalizer", "adaptive", "post-process finalizer: none, light or adaptive")
	printStats     = flag.Bool("stats", false, "print coding-cost statistics to stderr when done")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] compress|decompress sourcefile targetfile\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	mode := flag.Arg(0)
	sourcePath := flag.Arg(1)
	targetPath := flag.Arg(2)
	if mode == "" || sourcePath == "" || targetPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	finalizerMode, err := parseFinalizerMode(*finalizerName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		log.Fatalf("opening source file: %v", err)
	}
	defer source.Close()

	target, err := os.Create(targetPath)
	if err != nil {
		log.Fatalf("creating target file: %v", err)
	}
	defer target.Close()

	luts := lut.New()
	p := predictor.New(uint32(*windowCapacity), finalizerMode, luts)

	switch mode {
	case "compress":
		err = compress(bufio.NewReader(source), bufio.NewWriter(target), p)
	case "decompress":
		err = decompress(bufio.NewReader(source), bufio.NewWriter(target), p)
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *printStats {
		p.PrintState(os.Stderr)
	}
}

func parseFinalizerMode(name string) (predictor.FinalizerMode, error) {
	switch name {
	case "none":
		return predictor.FinalizerNone, nil
	case "light":
		return predictor.FinalizerLight, nil
	case "adaptive":
		return predictor.FinalizerAdaptive, nil
	default:
		return 0, fmt.Errorf("unknown finalizer mode %q", name)
	}
}

// compress streams every byte of src through the predictor and an
// encoder, prefixing the output with src's length so decompress knows
// when to stop.
func compress(src *bufio.Reader, dst *bufio.Writer, p *predictor.Predictor) error {
	input, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	var header [8]byte
	binary.BigEndian.PutUint64(header[:], uint64(len(input)))
	if _, err := dst.Write(header[:]); err != nil {
		return err
	}

	encoder := coding.NewEncoder(dst)
	for _, raw := range input {
		p.StartNewByte()
		for bitIndex := 7; bitIndex >= 0; bitIndex-- {
			b := bit.FromUint(uint(raw>>uint(bitIndex)) & 1)
			final, err := p.Predict()
			if err != nil {
				return err
			}
			if err := encoder.EncodeBit(final, b.IsOne()); err != nil {
				return err
			}
			if err := p.Update(b); err != nil {
				return err
			}
		}
	}
	if err := encoder.Finish(); err != nil {
		return err
	}
	return dst.Flush()
}

// decompress is compress's mirror: it reads the length header, then
// recovers exactly that many bytes by running the same predictor
// against the decoder instead of the encoder.
func decompress(src *bufio.Reader, dst *bufio.Writer, p *predictor.Predictor) error {
	var header [8]byte
	if _, err := io.ReadFull(src, header[:]); err != nil {
		return err
	}
	totalBytes := binary.BigEndian.Uint64(header[:])

	decoder, err := coding.NewDecoder(src)
	if err != nil {
		return err
	}

	for i := uint64(0); i < totalBytes; i++ {
		p.StartNewByte()
		var raw byte
		for bitIndex := 7; bitIndex >= 0; bitIndex-- {
			final, err := p.Predict()
			if err != nil {
				return err
			}
			bitValue, err := decoder.DecodeBit(final)
			if err != nil {
				return err
			}
			b := bit.FromBool(bitValue)
			if err := p.Update(b); err != nil {
				return err
			}
			raw |= b.ToU8() << uint(bitIndex)
		}
		if err := dst.WriteByte(raw); err != nil {
			return err
		}
	}
	return dst.Flush()
}
