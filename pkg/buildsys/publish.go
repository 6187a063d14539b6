package buildsys

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/aidarkhanov/nanoid"
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/otiai10/copy"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

func getProgressBar(enabled bool, length int64, desc string) *progressbar.ProgressBar {
	if !enabled || os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

func compressWriter(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressGzip:
		// the header stays empty (no name, no mtime) so republishing produces identical bytes
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case CompressXz:
		return xz.NewWriter(w)
	case CompressBrotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	}

	return nil, eris.Errorf("unsupported compression %s", compression)
}

func compressFile(src, dest string, compression Compression, showProgress bool) error {
	srcHandle, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", src)
	}
	defer srcHandle.Close()

	info, err := srcHandle.Stat()
	if err != nil {
		return eris.Wrapf(err, "failed to stat %s", src)
	}

	destHandle, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", dest)
	}
	defer destHandle.Close()

	writer, err := compressWriter(destHandle, compression)
	if err != nil {
		return err
	}

	bar := getProgressBar(showProgress, info.Size(), "     compress")
	_, err = io.Copy(writer, io.TeeReader(srcHandle, bar))
	if err != nil {
		writer.Close()
		return eris.Wrapf(err, "failed to compress %s", src)
	}
	bar.Finish()

	err = writer.Close()
	if err != nil {
		return eris.Wrapf(err, "failed to finish %s", dest)
	}

	return destHandle.Close()
}

func stageFile(src, dest string, compression Compression, showProgress bool) error {
	if compression == CompressNone || compression == "" {
		// a symlinked artifact is published as the file it points to
		err := copy.Copy(src, dest, copy.Options{
			Sync:      true,
			OnSymlink: func(string) copy.SymlinkAction { return copy.Deep },
		})
		if err != nil {
			return eris.Wrapf(err, "failed to copy %s to %s", src, dest)
		}
		return nil
	}

	return compressFile(src, dest, compression, showProgress)
}

// publishFile writes src to cfg.PublishDir under fileName and records it in the manifest. The returned
// path is the final destination.
func publishFile(ctx context.Context, cfg BuildConfig, name, src, fileName string) (string, error) {
	fileName += cfg.Compression.Ext()
	dest := filepath.Join(cfg.PublishDir, fileName)

	if cfg.DryRun {
		log(ctx).Info().
			Str("path", dest).
			Msgf("would publish %s to %s", name, dest)
		return dest, nil
	}

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", eris.Wrapf(ErrMissingArtifact, "%s: %s does not exist", name, src)
		}
		return "", eris.Wrapf(err, "failed to check %s", src)
	}

	if !info.Mode().IsRegular() {
		return "", eris.Wrapf(ErrMissingArtifact, "%s: %s is not a regular file", name, src)
	}

	err = os.MkdirAll(cfg.PublishDir, 0770)
	if err != nil {
		return "", eris.Wrapf(err, "failed to create directory %s", cfg.PublishDir)
	}

	manifest, err := ReadManifest(cfg.PublishDir)
	if err != nil {
		return "", err
	}

	srcDigest, err := fileDigest(src)
	if err != nil {
		return "", eris.Wrapf(err, "failed to read %s", src)
	}

	if entry, ok := manifest.Artifacts[fileName]; ok && entry.SourceSha256 == srcDigest && entry.Compression == cfg.Compression {
		destDigest, err := fileDigest(dest)
		if err == nil && destDigest == entry.Sha256 {
			log(ctx).Info().
				Str("path", dest).
				Msgf("%s is up to date", dest)
			return dest, nil
		}
	}

	tmpPath := filepath.Join(cfg.PublishDir, "."+fileName+"."+nanoid.New()+".tmp")
	defer os.Remove(tmpPath)

	err = stageFile(src, tmpPath, cfg.Compression, cfg.Progress)
	if err != nil {
		return "", err
	}

	destDigest, err := fileDigest(tmpPath)
	if err != nil {
		return "", err
	}

	err = os.Rename(tmpPath, dest)
	if err != nil {
		return "", eris.Wrapf(err, "failed to move %s to %s", tmpPath, dest)
	}

	manifest.Artifacts[fileName] = ManifestEntry{
		Name:         name,
		File:         fileName,
		Source:       src,
		SourceSha256: srcDigest,
		Sha256:       destDigest,
		Version:      cfg.Version,
		Platform:     cfg.Platform,
		Compression:  cfg.Compression,
	}

	err = manifest.Write(cfg.PublishDir)
	if err != nil {
		return "", err
	}

	log(ctx).Info().
		Str("path", dest).
		Msgf("published %s as %s", name, dest)
	return dest, nil
}
