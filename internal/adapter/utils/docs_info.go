package utils

//run redis
//docker run -p 6379:6379 -d redis

//run qdrant
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//optional backends, pick them in config.yaml
//docker run -p 9000:9000 -p 9001:9001 minio/minio server /data --console-address ":9001"
//docker run -p 9200:9200 -e discovery.type=single-node -e xpack.security.enabled=false elasticsearch:8.19.0
//docker run -p 3306:3306 -e MYSQL_ROOT_PASSWORD=documind -e MYSQL_DATABASE=documind mysql:8

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
