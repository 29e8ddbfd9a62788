package logging

import "github.com/sirupsen/logrus"

func TargetFields(uri, filename string) logrus.Fields {
	return logrus.Fields{
		"uri":      uri,
		"filename": filename,
	}
}

// RetryLogger adapts a logrus logger to retryablehttp.LeveledLogger.
type RetryLogger struct {
	Logger logrus.FieldLogger
}

func (l RetryLogger) Error(msg string, kv ...interface{}) {
	l.Logger.WithFields(kvFields(kv)).Error(msg)
}

func (l RetryLogger) Info(msg string, kv ...interface{}) {
	l.Logger.WithFields(kvFields(kv)).Debug(msg)
}

func (l RetryLogger) Debug(msg string, kv ...interface{}) {
	l.Logger.WithFields(kvFields(kv)).Trace(msg)
}

func (l RetryLogger) Warn(msg string, kv ...interface{}) {
	l.Logger.WithFields(kvFields(kv)).Warn(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
