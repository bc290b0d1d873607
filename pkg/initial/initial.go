// Package initial turns Config into live backends. Every optional backend falls
// back to its no-op implementation when its address is not configured.
package initial

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"learnhub/pkg/cache"
	"learnhub/pkg/documents"
	"learnhub/pkg/kfka"
	"learnhub/pkg/search"
	"learnhub/pkg/storage"
	"learnhub/pkg/storage/inmem"
	"learnhub/pkg/storage/postgres"
)

// OpenStore returns the store and a function that releases it.
func OpenStore(cfg Config) (storage.Store, func() error, error) {
	if cfg.Storage == "memory" {
		return inmem.Open(), func() error { return nil }, nil
	}
	pg, err := postgres.Open(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(); err != nil {
		pg.Close()
		return nil, nil, errors.Wrap(err, "migrate")
	}
	return pg, pg.Close, nil
}

func NewCache(cfg Config, logger *log.Logger) (cache.Cache, func() error) {
	if cfg.RedisURL == "" {
		return cache.Noop{}, func() error { return nil }
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.RedisURL}
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Println("redis not reachable, cache reads will miss until it is:", err)
	}
	return cache.NewRedis(client, logger), client.Close
}

func NewPublisher(cfg Config, logger *log.Logger) (kfka.Publisher, func() error) {
	if cfg.KafkaAddress == "" {
		return kfka.Noop{}, func() error { return nil }
	}
	w := kfka.NewWriter(cfg.KafkaAddress, logger)
	return w, w.Close
}

func NewIndexer(cfg Config) (search.Indexer, error) {
	if cfg.ESAddress == "" {
		return search.Noop{}, nil
	}
	esCfg := elasticsearch.Config{
		Addresses: strings.Split(cfg.ESAddress, ","),
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	}
	if cfg.ESSkipVerify {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch client")
	}
	return search.NewElastic(client), nil
}

func NewMediaStore(ctx context.Context, cfg Config) (documents.MediaStore, error) {
	if cfg.MinioEndpoint == "" {
		return documents.Noop{}, nil
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client")
	}
	return documents.NewMinio(ctx, client, cfg.MinioBucket)
}

// ReindexCourses pushes every published course into the search index.
func ReindexCourses(ctx context.Context, store storage.CourseStore, idx search.Indexer) error {
	q := storage.CourseQuery{Page: 1, Limit: 100}
	for {
		batch, total, err := store.ListCourses(ctx, q)
		if err != nil {
			return errors.Wrap(err, "list courses")
		}
		for _, c := range batch {
			if err := idx.IndexCourse(ctx, c); err != nil {
				return err
			}
		}
		if int64(q.Page*q.Limit) >= total || len(batch) == 0 {
			return nil
		}
		q.Page++
	}
}
