package service

import (
	"fmt"
	"path"

	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/store"
)

// Attachment fields written by uploads.
const (
	FieldFiles = "files"
	FieldLogo  = "logo_url"
)

// RecordService is the CRUD layer over one store for every collection.
type RecordService struct {
	Store *store.Store
}

func (s *RecordService) List(collection string) ([]store.Record, error) {
	return s.Store.List(collection)
}

func (s *RecordService) Get(collection string, id int64) (store.Record, error) {
	return s.Store.Get(collection, id)
}

func (s *RecordService) Create(collection string, fields store.Record) (store.Record, error) {
	return s.Store.Create(collection, fields)
}

func (s *RecordService) Update(collection string, id int64, fields store.Record) (store.Record, error) {
	return s.Store.Update(collection, id, fields)
}

func (s *RecordService) Delete(collection string, id int64) error {
	return s.Store.Delete(collection, id)
}

// AttachFiles replaces the stored file list of a record with names, as
// served URLs.
func (s *RecordService) AttachFiles(collection string, id int64, names []string) (store.Record, error) {
	urls := make([]string, 0, len(names))
	for _, n := range names {
		urls = append(urls, fileURL(collection, id, n))
	}
	return s.Store.Update(collection, id, store.Record{FieldFiles: urls})
}

// ClearFiles removes any stored files from a record.
func (s *RecordService) ClearFiles(collection string, id int64) (store.Record, error) {
	return s.Store.Update(collection, id, store.Record{FieldFiles: nil})
}

// SetLogo records the logo of a record.
func (s *RecordService) SetLogo(collection string, id int64, name string) (store.Record, error) {
	return s.Store.Update(collection, id, store.Record{FieldLogo: fileURL(collection, id, "logo-"+name)})
}

func fileURL(collection string, id int64, name string) string {
	return path.Join("/uploads", collection, fmt.Sprint(id), path.Base(name))
}
